package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every *InvalidInputError under errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoTermFits is returned when no compared term satisfies the payment cap.
	ErrNoTermFits = errors.New("no term fits the maximum monthly payment")
)

// InvalidInputError reports which loan field failed validation and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
