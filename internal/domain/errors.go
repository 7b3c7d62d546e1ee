package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by repositories when a lookup matches no row
	ErrNotFound = errors.New("not found")

	// ErrInvalid matches every validation failure reported through Invalidf
	ErrInvalid = errors.New("invalid input")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrInvalid }

// Invalidf returns a validation error with the formatted message.
// errors.Is(err, ErrInvalid) holds for the result; the message is not prefixed.
func Invalidf(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
