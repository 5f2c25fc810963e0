package sale

import "errors"

// Error message constants for the sale workflow.
const (
	ErrMsgNotAuthenticated = "You must be logged in to create a sale"
	ErrMsgNoUser           = "Could not identify the current user. Please log in again"
	ErrMsgClientNotReady   = "Search for the client by DNI first"
	ErrMsgClientFailed     = "Error creating the client"
	ErrMsgSaleFailed       = "Error creating the sale"
	ErrMsgUnknownPayment   = "Unknown payment method %q"
	ErrMsgAlreadyCancelled = "Sale %d is already cancelled"
	ErrMsgInvalidSaleID    = "Sale id must be positive"
	ErrMsgInvalidClientID  = "Client id must be positive"
)

// ErrSubmitInFlight is returned when Submit is called while another submission
// has not finished.
var ErrSubmitInFlight = errors.New("a sale submission is already in progress")

// Stage names the external call a submission failed at.
type Stage string

const (
	StageCreateClient Stage = "create_client"
	StageCreateSale   Stage = "create_sale"
)

// SubmitError is a failed backend call during Submit. Message is the server's
// own message when it sent one, otherwise a generic one for the stage.
type SubmitError struct {
	Stage   Stage
	Message string
	Cause   error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// AsSubmitError extracts a SubmitError from an error chain.
func AsSubmitError(err error) *SubmitError {
	var se *SubmitError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
