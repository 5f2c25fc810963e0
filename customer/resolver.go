// Package customer resolves the client of a sale by national id (DNI), falling
// back to registering a new client when the lookup misses.
package customer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"salesdesk/api"
	"salesdesk/pos"
)

// Error message constants for client resolution.
const (
	ErrMsgInvalidDNI     = "DNI must be exactly 8 digits"
	ErrMsgSearchFailed   = "Error searching client"
	ErrMsgNotRegistering = "Client fields can only be edited while registering a new client"
)

// State is where the resolver is in the lookup flow.
type State int

const (
	// Unresolved is the initial state: no client chosen.
	Unresolved State = iota
	// Found means the DNI matched an existing client.
	Found
	// Registering means the DNI missed and a new client is being entered.
	Registering
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Found:
		return "found"
	case Registering:
		return "registering"
	default:
		return "unknown"
	}
}

// Lookup finds clients by DNI. A miss must be reported as an error for which
// api.IsNotFound is true.
type Lookup interface {
	GetClientByDNI(ctx context.Context, dni string) (api.Customer, error)
}

var dniPattern = regexp.MustCompile(`^[0-9]{8}$`)

// Resolver tracks the client of the sale being built. It is not safe for
// concurrent use.
type Resolver struct {
	lookup Lookup
	logger *zap.Logger

	state  State
	draft  Draft
	client api.Customer
}

// NewResolver creates an unresolved resolver.
func NewResolver(lookup Lookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Search looks dni up. A malformed DNI is rejected without calling the backend.
// A hit moves to Found with the server record; a miss moves to Registering with
// only the DNI filled in; any other failure moves to Unresolved and is returned.
func (r *Resolver) Search(ctx context.Context, dni string) error {
	dni = strings.TrimSpace(dni)
	if !dniPattern.MatchString(dni) {
		return pos.NewInvalidArgument(ErrMsgInvalidDNI)
	}

	client, err := r.lookup.GetClientByDNI(ctx, dni)
	switch {
	case err == nil:
		r.state = Found
		r.client = client
		r.draft = DraftFrom(client)
		r.logger.Debug("client found", zap.String("dni", dni), zap.Int64("client_id", client.ID))
		return nil
	case api.IsNotFound(err):
		r.state = Registering
		r.client = api.Customer{}
		r.draft = Draft{DNI: dni}
		r.logger.Debug("client not found, registering", zap.String("dni", dni))
		return nil
	default:
		r.reset()
		r.logger.Warn("client lookup failed", zap.String("dni", dni), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrMsgSearchFailed, err)
	}
}

// Adopt marks a freshly created client as found, so a retried submission does
// not register it twice.
func (r *Resolver) Adopt(client api.Customer) {
	r.state = Found
	r.client = client
	r.draft = DraftFrom(client)
}

// Clear returns to Unresolved and empties every client field.
func (r *Resolver) Clear() {
	r.reset()
}

func (r *Resolver) reset() {
	r.state = Unresolved
	r.client = api.Customer{}
	r.draft = Draft{}
}

// State is the current resolution state.
func (r *Resolver) State() State {
	return r.state
}

// Ready reports whether the client side of the sale can be submitted.
func (r *Resolver) Ready() bool {
	return r.state == Found || r.state == Registering
}

// Draft returns the client fields as currently shown.
func (r *Resolver) Draft() Draft {
	return r.draft
}

// Client returns the found server record.
func (r *Resolver) Client() (api.Customer, bool) {
	return r.client, r.state == Found
}

// ClientID is the id of the found client, or zero.
func (r *Resolver) ClientID() int64 {
	if r.state != Found {
		return 0
	}
	return r.client.ID
}

// UpdateDraft replaces the new-client fields. Only allowed while registering;
// found clients are read-only. An empty DNI keeps the searched one.
func (r *Resolver) UpdateDraft(d Draft) error {
	if r.state != Registering {
		return pos.NewFailedPrecondition(ErrMsgNotRegistering)
	}
	if strings.TrimSpace(d.DNI) == "" {
		d.DNI = r.draft.DNI
	}
	r.draft = d
	return nil
}
