package cfntheory

import (
	"errors"
	"fmt"

	"github.com/theory-cloud/cfntheory/pkg/schema"
)

// Error is returned by construct constructors, mutators and synthesis. Code
// is one of the ErrorCode constants; Cause, when set, is reachable through
// errors.As.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// ErrorCode returns the code of the first *Error in err's chain, or "".
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Validation errors raised by the property validator.
type (
	MissingRequiredFieldError = schema.MissingRequiredFieldError
	TypeMismatchError         = schema.TypeMismatchError
	UnknownFieldError         = schema.UnknownFieldError
	DuplicateFieldError       = schema.DuplicateFieldError
)
