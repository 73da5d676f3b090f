package errors

import (
	"math"
)

// ValidatePositive rejects zero, negative, NaN and infinite values.
// The name is used verbatim in the error message.
func ValidatePositive(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return New(ErrCodeInvalidConfiguration, "%s must be positive, got %g", name, v)
	}
	return nil
}

// ValidateNonNegative rejects negative, NaN and infinite values.
func ValidateNonNegative(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidConfiguration, "%s must not be negative, got %g", name, v)
	}
	return nil
}

// ValidateFinite rejects NaN and infinite values.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfiguration, "%s must be a finite number", name)
	}
	return nil
}

// ValidateRange rejects values outside [lo, hi].
func ValidateRange(name string, v, lo, hi float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < lo || v > hi {
		return New(ErrCodeInvalidConfiguration, "%s must be within [%g, %g], got %g", name, lo, hi, v)
	}
	return nil
}

// ValidateCount rejects negative iteration counts and limits.
func ValidateCount(name string, n int) error {
	if n < 0 {
		return New(ErrCodeInvalidConfiguration, "%s must not be negative, got %d", name, n)
	}
	return nil
}

// First returns the first non-nil error, or nil.
// Parameter validators chain their checks through it.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
