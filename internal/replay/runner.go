package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spboyer/slidestats/internal/slidingstats"
)

// Summary describes a finished replay.
type Summary struct {
	Samples    int                           `json:"samples"`
	Chunks     int                           `json:"chunks"`
	Strategies map[slidingstats.Strategy]int `json:"-"`
}

// StrategyCounts returns Strategies keyed by strategy name.
func (s Summary) StrategyCounts() map[string]int {
	out := make(map[string]int, len(s.Strategies))
	for k, v := range s.Strategies {
		out[k.String()] = v
	}
	return out
}

// Runner appends every chunk of a source to a StreamingStats.
type Runner struct {
	stats *slidingstats.StreamingStats

	// OnChunk, if set, is called after each successful append.
	OnChunk func(chunk int, plan slidingstats.Plan, stats *slidingstats.StreamingStats)
}

// NewRunner seeds a StreamingStats with initial and window m.
func NewRunner(initial []float64, m int) (*Runner, error) {
	stats, err := slidingstats.NewStreamingStats(initial, m)
	if err != nil {
		return nil, err
	}
	return &Runner{stats: stats}, nil
}

// Stats returns the underlying StreamingStats.
func (r *Runner) Stats() *slidingstats.StreamingStats {
	return r.stats
}

// Run drains src. Cancelling ctx stops the replay between chunks; chunks
// already appended stay applied.
func (r *Runner) Run(ctx context.Context, src ChunkSource) (Summary, error) {
	summary := Summary{
		Samples:    r.stats.Len(),
		Strategies: map[slidingstats.Strategy]int{},
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, fmt.Errorf("reading chunk %d: %w", summary.Chunks+1, err)
		}
		if len(chunk) == 0 {
			continue
		}

		plan := r.stats.Plan(len(chunk))
		if err := r.stats.Append(chunk); err != nil {
			return summary, fmt.Errorf("chunk %d: %w", summary.Chunks+1, err)
		}

		summary.Chunks++
		summary.Samples += len(chunk)
		summary.Strategies[plan.Strategy]++

		slog.Debug("Appended chunk",
			"chunk", summary.Chunks,
			"size", len(chunk),
			"strategy", plan.Strategy,
			"steps", plan.Steps,
			"residual", plan.Residual)

		if r.OnChunk != nil {
			r.OnChunk(summary.Chunks, plan, r.stats)
		}
	}
}
