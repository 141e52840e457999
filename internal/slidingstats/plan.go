package slidingstats

import "fmt"

// Strategy is the way an appended chunk updates the tracked statistics.
type Strategy int

const (
	// FullRecompute discards prior state: the chunk alone covers the whole
	// data buffer, so its statistics are computed from scratch.
	FullRecompute Strategy = iota

	// IncrementalThenResidual slides the last tracked window forward with the
	// online update for as long as windows still contain older samples, then
	// computes any windows lying entirely inside the chunk in batch.
	IncrementalThenResidual
)

func (s Strategy) String() string {
	switch s {
	case FullRecompute:
		return "full_recompute"
	case IncrementalThenResidual:
		return "incremental_then_residual"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Plan describes how an Append of a given chunk will be carried out.
type Plan struct {
	Strategy Strategy

	// Steps is the number of online updates. Zero for FullRecompute.
	Steps int

	// Residual is set when the windows fully inside the chunk are computed in
	// batch after the online updates.
	Residual bool
}

// PlanAppend decides how to fold a chunk of k samples into statistics of
// window m, tracked over a data buffer currently holding bufLen samples.
//
// Windows ending at the first m-1 new samples still reach back into the
// buffer and are updated online. Every later window lies entirely inside the
// chunk, so once k >= m those are computed directly from the chunk.
func PlanAppend(bufLen, m, k int) Plan {
	if k >= bufLen {
		return Plan{Strategy: FullRecompute}
	}
	return Plan{
		Strategy: IncrementalThenResidual,
		Steps:    min(k, m-1),
		Residual: k >= m,
	}
}

// Emitted returns how many mean/variance values the plan produces for a chunk
// of k samples with window m over a buffer of bufLen samples.
func (p Plan) Emitted(bufLen, m, k int) int {
	if p.Strategy == FullRecompute {
		return bufLen - m + 1
	}
	n := p.Steps
	if p.Residual {
		n += k - m + 1
	}
	return n
}
