package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CopiesInitial(t *testing.T) {
	initial := []float64{1, 2, 3}
	r := New(initial)

	initial[0] = 100

	require.Equal(t, 3, r.Cap())
	require.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{1, 2, 3}, r.View())
}

func TestPush(t *testing.T) {
	tests := []struct {
		name   string
		pushes [][]float64
		expect []float64
	}{
		{"nothing", nil, []float64{1, 2, 3}},
		{"empty push", [][]float64{{}}, []float64{1, 2, 3}},
		{"single", [][]float64{{4}}, []float64{2, 3, 4}},
		{"two singles", [][]float64{{4}, {5}}, []float64{3, 4, 5}},
		{"exact capacity", [][]float64{{4, 5, 6}}, []float64{4, 5, 6}},
		{"over capacity", [][]float64{{4, 5, 6, 7, 8}}, []float64{6, 7, 8}},
		{"wraps storage", [][]float64{{4}, {5, 6}, {7}}, []float64{5, 6, 7}},
		{"many small", [][]float64{{4}, {5}, {6}, {7}, {8}, {9}, {10}}, []float64{8, 9, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New([]float64{1, 2, 3})
			for _, p := range tt.pushes {
				r.Push(p...)
			}
			assert.Equal(t, tt.expect, r.View())
			assert.Equal(t, len(tt.expect), r.Len())
		})
	}
}

func TestPush_LengthNeverExceedsCapacity(t *testing.T) {
	r := New([]float64{-4, -3, -2, -1, 0})
	next := 0.0
	for chunk := 1; chunk <= 12; chunk++ {
		values := make([]float64, chunk)
		for i := range values {
			next++
			values[i] = next
		}
		r.Push(values...)

		require.Equal(t, 5, r.Len())
		view := r.View()
		assert.Equal(t, next, view[len(view)-1])
		for i := 1; i < len(view); i++ {
			assert.Equal(t, view[i-1]+1, view[i], "values must stay in insertion order")
		}
	}
}

func TestZeroCapacity(t *testing.T) {
	r := New(nil)
	r.Push(1, 2, 3)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.View())
	_, ok := r.Last()
	assert.False(t, ok)
}

func TestLast(t *testing.T) {
	r := New([]float64{1, 2})
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, 2.0, last)

	r.Push(7)
	last, ok = r.Last()
	require.True(t, ok)
	assert.Equal(t, 7.0, last)
}

func TestView_AliasesStorage(t *testing.T) {
	r := New([]float64{1, 2, 3})
	view := r.View()

	r.Push(4, 5, 6, 7)

	// the old view shares storage with the buffer and now shows new data
	assert.Equal(t, []float64{5, 6, 7}, view)
}

func TestView_AppendDoesNotClobberBuffer(t *testing.T) {
	r := New([]float64{1, 2, 3})
	view := r.View()
	_ = append(view, 99)

	r.Push(4)
	assert.Equal(t, []float64{2, 3, 4}, r.View())
}

func TestSnapshot_SurvivesPush(t *testing.T) {
	r := New([]float64{1, 2, 3})
	snap := r.Snapshot()

	r.Push(4, 5, 6, 7)

	assert.Equal(t, []float64{1, 2, 3}, snap)
	assert.Equal(t, []float64{5, 6, 7}, r.Snapshot())
}
