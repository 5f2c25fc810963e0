package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
)

// ClientError represents errors from API calls.
type ClientError struct {
	Kind       ErrorKind
	HTTPStatus int
	// ServerMessage is the message the server put in the error body, if any.
	ServerMessage string
	Message       string
	Cause         error
}

// ErrorKind categorizes client errors.
type ErrorKind int

const (
	// ErrConnection indicates the request never got a response.
	ErrConnection ErrorKind = iota
	// ErrTransport indicates a failure building the request or reading the response.
	ErrTransport
	// ErrStatus indicates a non-success HTTP status from the server.
	ErrStatus
	// ErrDecode indicates a response body that could not be decoded.
	ErrDecode
	// ErrInvalidArgument indicates an invalid argument from the caller.
	ErrInvalidArgument
)

func (e *ClientError) Error() string {
	msg := e.Message
	if e.ServerMessage != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.ServerMessage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Code classifies the error with a gRPC status code.
func (e *ClientError) Code() codes.Code {
	switch e.Kind {
	case ErrConnection:
		return codes.Unavailable
	case ErrDecode:
		return codes.Internal
	case ErrInvalidArgument:
		return codes.InvalidArgument
	case ErrStatus:
		return codeFromHTTP(e.HTTPStatus)
	default:
		return codes.Unknown
	}
}

// IsNotFound returns true if the server answered 404.
func (e *ClientError) IsNotFound() bool {
	return e.Kind == ErrStatus && e.HTTPStatus == http.StatusNotFound
}

// IsUnauthenticated returns true if the server rejected the session.
func (e *ClientError) IsUnauthenticated() bool {
	return e.Code() == codes.Unauthenticated
}

// IsConnectionError returns true if this is a connection or transport error.
func (e *ClientError) IsConnectionError() bool {
	return e.Kind == ErrConnection || e.Kind == ErrTransport
}

// UserMessage returns the server's own message when it sent one, else fallback.
func (e *ClientError) UserMessage(fallback string) string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	return fallback
}

func codeFromHTTP(status int) codes.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return codes.FailedPrecondition
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	}
	if status >= 500 {
		return codes.Internal
	}
	return codes.Unknown
}

// serverMessage pulls the human message out of an error body.
// The backend uses {"error": "..."}; some handlers send {"message": "..."}.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Message)
}

// Error constructors

// ConnectionError wraps a failure to get any response.
func ConnectionError(err error) *ClientError {
	return &ClientError{Kind: ErrConnection, Message: "connection error", Cause: err}
}

// TransportError wraps a request/response plumbing error.
func TransportError(err error) *ClientError {
	return &ClientError{Kind: ErrTransport, Message: "transport error", Cause: err}
}

// StatusError creates an error for a non-success HTTP status.
func StatusError(status int, serverMsg string) *ClientError {
	return &ClientError{
		Kind:          ErrStatus,
		HTTPStatus:    status,
		ServerMessage: serverMsg,
		Message:       fmt.Sprintf("unexpected status %d", status),
	}
}

// DecodeError wraps a JSON decoding failure.
func DecodeError(err error) *ClientError {
	return &ClientError{Kind: ErrDecode, Message: "decode error", Cause: err}
}

// InvalidArgumentError creates an invalid argument error.
func InvalidArgumentError(msg string) *ClientError {
	return &ClientError{Kind: ErrInvalidArgument, Message: msg}
}

// AsClientError extracts a ClientError from an error chain.
func AsClientError(err error) *ClientError {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	clientErr := AsClientError(err)
	return clientErr != nil && clientErr.IsNotFound()
}

// UserMessage returns the server-provided message in err's chain, else fallback.
func UserMessage(err error, fallback string) string {
	if clientErr := AsClientError(err); clientErr != nil {
		return clientErr.UserMessage(fallback)
	}
	return fallback
}
