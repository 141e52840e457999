// Package ringbuffer provides a fixed-capacity buffer of float64 values that
// keeps only the most recently pushed entries.
package ringbuffer

// RingBuffer holds at most Cap() values. Pushing past capacity silently evicts
// the oldest values.
//
// Storage is twice the capacity so the live region is always contiguous and
// View can hand out a slice without copying. The live region is compacted to
// the front only when a push would run past the end of the storage.
type RingBuffer struct {
	buf   []float64
	start int
	end   int
	cap   int
}

// New creates a RingBuffer whose capacity is len(initial) and whose contents
// are a copy of initial.
func New(initial []float64) *RingBuffer {
	c := len(initial)
	r := &RingBuffer{
		buf: make([]float64, 2*c),
		cap: c,
	}
	copy(r.buf, initial)
	r.end = c
	return r
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return r.cap
}

// Len returns the number of values currently held.
func (r *RingBuffer) Len() int {
	return r.end - r.start
}

// View returns the contents, oldest first. The slice aliases the buffer's
// storage: it is only valid until the next call to Push, after which its
// contents are unspecified.
func (r *RingBuffer) View() []float64 {
	return r.buf[r.start:r.end:r.end]
}

// Snapshot returns a copy of View that stays valid across pushes.
func (r *RingBuffer) Snapshot() []float64 {
	out := make([]float64, r.Len())
	copy(out, r.View())
	return out
}

// Last returns the most recent value, or false when the buffer is empty.
func (r *RingBuffer) Last() (float64, bool) {
	if r.end == r.start {
		return 0, false
	}
	return r.buf[r.end-1], true
}

// Push appends values in order. If the result exceeds the capacity, the oldest
// values are evicted so exactly the most recent Cap() remain.
func (r *RingBuffer) Push(values ...float64) {
	n := len(values)
	if n == 0 || r.cap == 0 {
		return
	}

	if n >= r.cap {
		copy(r.buf, values[n-r.cap:])
		r.start, r.end = 0, r.cap
		return
	}

	if r.end+n > len(r.buf) {
		keep := min(r.Len(), r.cap-n)
		copy(r.buf, r.buf[r.end-keep:r.end])
		r.start, r.end = 0, keep
	}

	copy(r.buf[r.end:], values)
	r.end += n
	if r.Len() > r.cap {
		r.start = r.end - r.cap
	}
}
