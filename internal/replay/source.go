// Package replay feeds a series into slidingstats.StreamingStats chunk by
// chunk, the way a live stream would deliver it.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
)

//go:generate go tool mockgen -source=source.go -destination=mock_source_test.go -package=replay

// ChunkSource delivers the samples of a stream in chunks. Next returns io.EOF
// once the stream is exhausted.
type ChunkSource interface {
	Next(ctx context.Context) ([]float64, error)
}

// SliceSource splits an in-memory series into consecutive chunks whose sizes
// cycle through a fixed list.
type SliceSource struct {
	values []float64
	sizes  []int
	pos    int
	turn   int
}

// NewSliceSource returns a source over values. Chunk sizes are taken from
// sizes in order, wrapping around; the final chunk may be shorter.
func NewSliceSource(values []float64, sizes []int) (*SliceSource, error) {
	if len(sizes) == 0 {
		return nil, errors.New("replay: at least one chunk size is required")
	}
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("replay: chunk sizes must be > 0, got %d", s)
		}
	}
	return &SliceSource{values: values, sizes: sizes}, nil
}

func (s *SliceSource) Next(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.values) {
		return nil, io.EOF
	}

	size := s.sizes[s.turn%len(s.sizes)]
	s.turn++

	end := min(s.pos+size, len(s.values))
	chunk := s.values[s.pos:end]
	s.pos = end
	return chunk, nil
}
