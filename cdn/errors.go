package cdn

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidMethod = errors.New("invalid request method")
	ErrTransport     = errors.New("cdn transport failure")
	ErrProtocol      = errors.New("invalid cdn response")
	ErrApplication   = errors.New("cdn reported an error")
)

// Error is the only error type returned by Client.
type Error struct {
	Kind   error
	Op     string // upload, delete or request
	Field  string // upload field name, empty for deletes
	Target string // file path, remote URL or file token
	Body   string // raw response body, if one was read
	Err    error

	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func invalidMethodError(method string) *Error {
	return &Error{
		Kind:    ErrInvalidMethod,
		Op:      "request",
		Target:  method,
		message: fmt.Sprintf("Invalid request method %q in cdn.Client", method),
	}
}

func transportError(op, field, target, prefix string, err error) *Error {
	return &Error{
		Kind:    ErrTransport,
		Op:      op,
		Field:   field,
		Target:  target,
		Err:     err,
		message: prefix + err.Error(),
	}
}

func protocolError(op, field, target, contextMessage, body string, err error) *Error {
	message := contextMessage
	if body != "" {
		message += " - \n\n" + body
	}

	return &Error{
		Kind:    ErrProtocol,
		Op:      op,
		Field:   field,
		Target:  target,
		Body:    body,
		Err:     err,
		message: message,
	}
}

func applicationError(op, field, target, body, message string) *Error {
	return &Error{
		Kind:    ErrApplication,
		Op:      op,
		Field:   field,
		Target:  target,
		Body:    body,
		message: message,
	}
}
