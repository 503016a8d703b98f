package conversation

import (
	"errors"
	"fmt"
)

// ErrUnknownStyle is reported when a callback token is not in the catalog.
var ErrUnknownStyle = errors.New("conversation: unknown style token")

// ValidationError describes rejected user input. The session is left untouched.
type ValidationError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// Code is used by the handler summary logs.
func (e *ValidationError) Code() string {
	return "validation"
}
