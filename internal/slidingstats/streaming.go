package slidingstats

import (
	"fmt"

	"github.com/spboyer/slidestats/internal/ringbuffer"
)

// StreamingStats tracks a data stream together with the mean and variance of
// every window of length m over the retained data.
//
// The data buffer keeps the last len(series) samples given at construction;
// the mean and variance buffers keep the last len(series)-m+1 statistics.
//
// StreamingStats is not safe for concurrent use. Callers that share an
// instance between goroutines must serialize access themselves.
type StreamingStats struct {
	m        int
	data     *ringbuffer.RingBuffer
	mean     *ringbuffer.RingBuffer
	variance *ringbuffer.RingBuffer
}

// View exposes the buffers without copying. The slices alias internal storage
// and are only valid inside the Inspect callback that received them.
type View struct {
	Data     []float64
	Mean     []float64
	Variance []float64
}

// NewStreamingStats starts tracking a stream whose first samples are series,
// using windows of length m. The capacity of the data buffer is len(series).
func NewStreamingStats(series []float64, m int) (*StreamingStats, error) {
	mean, variance, err := SlidingMeanVar(series, m)
	if err != nil {
		return nil, fmt.Errorf("initializing streaming stats: %w", err)
	}

	return &StreamingStats{
		m:        m,
		data:     ringbuffer.New(series),
		mean:     ringbuffer.New(mean),
		variance: ringbuffer.New(variance),
	}, nil
}

// Window returns the window length m.
func (s *StreamingStats) Window() int {
	return s.m
}

// Len returns the number of samples currently retained.
func (s *StreamingStats) Len() int {
	return s.data.Len()
}

// Plan reports how an Append of k samples would be carried out.
func (s *StreamingStats) Plan(k int) Plan {
	return PlanAppend(s.data.Len(), s.m, k)
}

// Append adds samples to the stream and updates the mean and variance of the
// windows ending at each of them. If data contains a non-finite value an
// error wrapping ErrInvalidInput is returned and nothing is modified.
func (s *StreamingStats) Append(data []float64) error {
	if len(data) == 0 {
		return nil
	}
	if err := CheckFinite(data); err != nil {
		return fmt.Errorf("appending %d samples: %w", len(data), err)
	}

	bufLen := s.data.Len()
	plan := PlanAppend(bufLen, s.m, len(data))

	switch plan.Strategy {
	case FullRecompute:
		mean, variance, err := SlidingMeanVar(data[len(data)-bufLen:], s.m)
		if err != nil {
			return fmt.Errorf("recomputing statistics: %w", err)
		}
		s.mean.Push(mean...)
		s.variance.Push(variance...)

	case IncrementalThenResidual:
		mean, variance := s.slide(data[:plan.Steps])
		s.mean.Push(mean...)
		s.variance.Push(variance...)

		if plan.Residual {
			mean, variance, err := SlidingMeanVar(data, s.m)
			if err != nil {
				return fmt.Errorf("computing residual statistics: %w", err)
			}
			s.mean.Push(mean...)
			s.variance.Push(variance...)
		}
	}

	s.data.Push(data...)
	return nil
}

// slide applies the rolling update for each value in added. The i-th step
// moves the last tracked window forward by one: added[i] enters and the sample
// m positions from the end of the data buffer (offset by i) leaves.
//
// The variance recurrence accumulates unclamped; only the emitted values are
// clamped, so a clamp never feeds into later steps.
func (s *StreamingStats) slide(added []float64) (mean, variance []float64) {
	if len(added) == 0 {
		return nil, nil
	}

	lastMean, _ := s.mean.Last()
	lastVar, _ := s.variance.Last()

	buffered := s.data.View()
	removed := buffered[len(buffered)-s.m : len(buffered)-s.m+len(added)]

	mean = make([]float64, len(added))
	variance = make([]float64, len(added))

	scale := float64(s.m)
	prevMean := lastMean
	var diffSum, varSum float64
	for i, in := range added {
		out := removed[i]
		diffSum += in - out
		newMean := lastMean + diffSum/scale
		varSum += (in - out) * (in - newMean + out - prevMean) / scale

		mean[i] = newMean
		variance[i] = clampVariance(lastVar + varSum)
		prevMean = newMean
	}
	return mean, variance
}

// Data returns a copy of the retained samples, oldest first.
func (s *StreamingStats) Data() []float64 {
	return s.data.Snapshot()
}

// Mean returns a copy of the retained window means, oldest first.
func (s *StreamingStats) Mean() []float64 {
	return s.mean.Snapshot()
}

// Variance returns a copy of the retained window variances, oldest first.
func (s *StreamingStats) Variance() []float64 {
	return s.variance.Snapshot()
}

// Inspect calls fn with zero-copy views of the buffers. The views must not be
// retained once fn returns: the next Append overwrites the storage behind
// them. Use Data, Mean and Variance for values that outlive the call.
func (s *StreamingStats) Inspect(fn func(v View)) {
	fn(View{
		Data:     s.data.View(),
		Mean:     s.mean.View(),
		Variance: s.variance.View(),
	})
}
