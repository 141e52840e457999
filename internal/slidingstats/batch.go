// Package slidingstats computes the mean and variance of every fixed-length
// window of a series, either for a whole series at once or incrementally as a
// stream grows.
package slidingstats

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the threshold below which a computed variance is treated as zero.
// Windows with no spread produce tiny non-zero (or negative) values through
// cancellation error.
const Epsilon = 1e-12

var (
	// ErrInvalidWindowSize is returned when the window size is not positive or
	// exceeds the length of the series it applies to.
	ErrInvalidWindowSize = errors.New("invalid window size")

	// ErrInvalidInput is returned when a series contains NaN or infinite values.
	ErrInvalidInput = errors.New("invalid input")
)

// SlidingMeanStd is like SlidingMeanVar but returns the standard deviation of
// each window instead of the variance.
func SlidingMeanStd(series []float64, m int) (mean, std []float64, err error) {
	mean, std, err = SlidingMeanVar(series, m)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range std {
		std[i] = math.Sqrt(v)
	}
	return mean, std, nil
}

// SlidingMeanVar returns the mean and variance of every window of length m in
// series. Both results have length len(series)-m+1, element i describing
// series[i:i+m].
//
// The computation is a single pass: each window sum is the previous one plus
// the value entering the window minus the value leaving it, and the variance
// is E[X²]-E[X]². This is only stable while the values being differenced stay
// within roughly 1e10 of each other; normalize wildly scaled data first.
func SlidingMeanVar(series []float64, m int) (mean, variance []float64, err error) {
	if err := checkWindow(len(series), m); err != nil {
		return nil, nil, err
	}
	if err := CheckFinite(series); err != nil {
		return nil, nil, err
	}

	n := len(series) - m + 1
	mean = make([]float64, n)
	variance = make([]float64, n)

	scale := float64(m)
	var sum, sumSq float64
	for i, x := range series {
		d, dSq := x, x*x
		if i >= m {
			old := series[i-m]
			d -= old
			dSq -= old * old
		}
		sum += d / scale
		sumSq += dSq / scale

		if i >= m-1 {
			mean[i-m+1] = sum
			variance[i-m+1] = sumSq
		}
	}

	for i, mu := range mean {
		variance[i] = clampVariance(variance[i] - mu*mu)
	}
	return mean, variance, nil
}

// CheckFinite returns an error wrapping ErrInvalidInput if any value is NaN or
// infinite.
func CheckFinite(series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %v at index %d is not finite", ErrInvalidInput, v, i)
		}
	}
	return nil
}

func checkWindow(length, m int) error {
	if m <= 0 {
		return fmt.Errorf("%w: m must be > 0, got %d", ErrInvalidWindowSize, m)
	}
	if m > length {
		return fmt.Errorf("%w: m (%d) must be <= series length (%d)", ErrInvalidWindowSize, m, length)
	}
	return nil
}

func clampVariance(v float64) float64 {
	if v < Epsilon {
		return 0
	}
	return v
}
