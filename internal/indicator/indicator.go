// Package indicator provides technical analysis indicators computed over a whole price series.
//
// Every function takes the full series and returns freshly allocated series of the same
// length, index aligned with the input. Arguments are checked up front and rejected with
// ErrInvalidArgument; the arithmetic behind the checks never fails and lets IEEE-754
// NaN and Inf values flow through.
package indicator

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned (wrapped) when a series or a period cannot be used.
var ErrInvalidArgument = errors.New("invalid argument")

func validateSeries(name string, series []float64) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: %s series cannot be empty", ErrInvalidArgument, name)
	}
	return nil
}

// validatePeriod checks smoothing periods. The EMA recurrence is defined for any
// series length, so the period is not bounded by it.
func validatePeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s period must be positive, got %d", ErrInvalidArgument, name, period)
	}
	return nil
}

// validateWindow checks trailing windows, which must fit inside the series.
func validateWindow(name string, window, n int) error {
	if window <= 0 {
		return fmt.Errorf("%w: %s window must be positive, got %d", ErrInvalidArgument, name, window)
	}
	if window > n {
		return fmt.Errorf("%w: %s window %d exceeds series length %d", ErrInvalidArgument, name, window, n)
	}
	return nil
}

// NamedSeries pairs a series with the name reported when it fails validation.
type NamedSeries struct {
	Name   string
	Values []float64
}

// ValidateSameLength fails unless every named series has exactly n values.
// The first offending series, in argument order, is reported.
func ValidateSameLength(n int, named ...NamedSeries) error {
	for _, s := range named {
		if len(s.Values) != n {
			return fmt.Errorf("%w: %s has length %d, expected %d", ErrInvalidArgument, s.Name, len(s.Values), n)
		}
	}
	return nil
}
