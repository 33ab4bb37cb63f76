package lookup

import (
	"errors"
	"fmt"
)

// Code classifies lookup failures. Only INVALID_REQUEST ever reaches the
// caller as an error; every other code is contained inside the engine and
// surfaces through the attempts log instead.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeTransport      Code = "TRANSPORT"
	CodeDiagnostic     Code = "DIAGNOSTIC"
	CodeTimeout        Code = "TIMEOUT"
	CodeParse          Code = "PARSE"
)

// Error is a classified lookup error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidRequest builds the one error class the engine refuses to recover
// from: there is nothing to look up.
func NewInvalidRequest(message string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: message}
}

// IsCode reports whether err is (or wraps) a lookup Error with the given code.
func IsCode(err error, code Code) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
