package calculators

import (
	"errors"
	"fmt"
)

// ErrInvalidInput classifies every input validation failure.
var ErrInvalidInput = errors.New("calculators: invalid input")

// InputError names the offending input so forms can attach the message to
// the right control.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("calculators: %s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// FieldErrors converts err into a field keyed message map, or nil when err
// is not an InputError.
func FieldErrors(err error) map[string][]string {
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		return nil
	}
	return map[string][]string{inputErr.Field: {inputErr.Message}}
}
