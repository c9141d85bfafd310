package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is wrapped by every precondition violation: negative
// irradiance, out-of-range efficiencies or SoC bounds, control actions outside
// [-1, 1] and non-positive capacities. Values are rejected, never clamped.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckFinite returns an ErrInvalidInput error naming field if v is NaN or
// infinite.
func CheckFinite(field string, v float64) error {
	if !finite(v) {
		return invalidf("%s must be finite, got %v", field, v)
	}
	return nil
}

// CheckFraction returns an ErrInvalidInput error unless v is in (0, 1].
func CheckFraction(field string, v float64) error {
	if !finite(v) || v <= 0 || v > 1 {
		return invalidf("%s must be in (0, 1], got %v", field, v)
	}
	return nil
}

// CheckPositive returns an ErrInvalidInput error unless v > 0.
func CheckPositive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return invalidf("%s must be > 0, got %v", field, v)
	}
	return nil
}

// CheckNonNegative returns an ErrInvalidInput error unless v >= 0.
func CheckNonNegative(field string, v float64) error {
	if !finite(v) || v < 0 {
		return invalidf("%s must be >= 0, got %v", field, v)
	}
	return nil
}

// CheckSOCBounds returns an ErrInvalidInput error unless
// 0 <= minSOC < maxSOC <= 1.
func CheckSOCBounds(minSOC, maxSOC float64) error {
	if !finite(minSOC) || !finite(maxSOC) || minSOC < 0 || maxSOC > 1 || minSOC >= maxSOC {
		return invalidf("soc bounds must satisfy 0 <= min (%v) < max (%v) <= 1", minSOC, maxSOC)
	}
	return nil
}
