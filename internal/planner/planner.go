// Package planner computes the timestamps at which frames are taken from a video.
package planner

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidInterval = errors.New("invalid interval: must be a positive number of seconds")
	ErrInvalidOffset   = errors.New("invalid offset: must be between 0 and the video duration")
	ErrInvalidDuration = errors.New("invalid duration: must not be negative")
)

// ValidateInterval reports whether interval can be used to plan frames.
func ValidateInterval(interval float64) error {
	if !(interval > 0) || math.IsInf(interval, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidInterval, interval)
	}
	return nil
}

// Plan returns timestamps 0, interval, 2*interval, ... up to and including duration.
func Plan(duration, interval float64) ([]float64, error) {
	return PlanFrom(duration, interval, 0)
}

// PlanFrom is Plan starting at offset instead of 0.
//
// The last timestamp may equal duration exactly. When interval is at least the
// remaining duration the result is the single timestamp offset.
func PlanFrom(duration, interval, offset float64) ([]float64, error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}
	if !(duration >= 0) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, duration)
	}
	if !(offset >= 0) || offset > duration {
		return nil, fmt.Errorf("%w: got %v for duration %v", ErrInvalidOffset, offset, duration)
	}

	n := int(math.Floor((duration-offset)/interval)) + 1
	ts := make([]float64, n)
	for k := range ts {
		// multiply rather than accumulate so rounding error does not drift
		ts[k] = offset + float64(k)*interval
	}
	if last := &ts[n-1]; *last > duration {
		*last = duration
	}
	return ts, nil
}
