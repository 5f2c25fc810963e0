// Package pos holds the rejection taxonomy and precondition helpers shared by the
// sale workflow packages.
package pos

import (
	"errors"
	"fmt"
)

// StatusCode represents the category of a local rejection.
type StatusCode int

const (
	StatusInvalidArgument StatusCode = iota
	StatusFailedPrecondition
	StatusUnauthenticated
)

func (s StatusCode) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailedPrecondition:
		return "FAILED_PRECONDITION"
	case StatusUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// CommandError is returned when an operation is rejected before reaching the network.
type CommandError struct {
	Code    StatusCode
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// NewInvalidArgument creates a CommandError for malformed or out-of-range input.
func NewInvalidArgument(message string) *CommandError {
	return &CommandError{Code: StatusInvalidArgument, Message: message}
}

// NewInvalidArgumentf creates an invalid argument CommandError with a formatted message.
func NewInvalidArgumentf(format string, args ...interface{}) *CommandError {
	return &CommandError{Code: StatusInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NewFailedPrecondition creates a CommandError for violated preconditions.
func NewFailedPrecondition(message string) *CommandError {
	return &CommandError{Code: StatusFailedPrecondition, Message: message}
}

// NewFailedPreconditionf creates a CommandError with a formatted message.
func NewFailedPreconditionf(format string, args ...interface{}) *CommandError {
	return &CommandError{Code: StatusFailedPrecondition, Message: fmt.Sprintf(format, args...)}
}

// NewUnauthenticated creates a CommandError for a missing or unusable session.
func NewUnauthenticated(message string) *CommandError {
	return &CommandError{Code: StatusUnauthenticated, Message: message}
}

// AsCommandError extracts a CommandError from an error chain.
func AsCommandError(err error) *CommandError {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	return nil
}

// HasCode reports whether err carries a CommandError with the given code.
func HasCode(err error, code StatusCode) bool {
	cmdErr := AsCommandError(err)
	return cmdErr != nil && cmdErr.Code == code
}
