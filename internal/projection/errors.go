package projection

import (
	"errors"
	"strconv"
	"strings"
)

// ErrValidation is matched by every ValidationError. User input that violates
// an invariant is rejected with it before any computation happens.
var ErrValidation = errors.New("validation failed")

// ErrPrecondition marks a broken caller contract: a zero frequency reaching
// the engine, or a pending rate reaching aggregation. It is a programming
// error, not a user-facing message.
var ErrPrecondition = errors.New("precondition violated")

// ValidationError reports one violated invariant on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ParseYears converts user input into a positive horizon in years.
func ParseYears(s string) (float64, error) {
	years, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ValidationError{Field: "years", Message: "please enter a valid number for years"}
	}
	if err := ValidateYears(years); err != nil {
		return 0, err
	}
	return years, nil
}

// ValidateYears rejects non-positive and non-finite horizons.
func ValidateYears(years float64) error {
	if !(years > 0) || isInf(years) {
		return &ValidationError{Field: "years", Message: "years must be a positive number"}
	}
	return nil
}
