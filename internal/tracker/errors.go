package tracker

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when deleting an expense id that is not in the store.
var ErrNotFound = errors.New("expense not found")

// Field names a rejected input.
type Field string

const (
	FieldExpense Field = "expense"
	FieldBudget  Field = "budget"
	FieldIncome  Field = "income"
)

// ValidationError is a rejected user input. Nothing was mutated.
type ValidationError struct {
	Field Field
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Alert is the message shown to the user ("Enter valid expense").
func (e *ValidationError) Alert() string {
	return "Enter valid " + string(e.Field)
}

// IsValidation reports whether err is a rejected input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
