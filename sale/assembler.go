// Package sale turns a cart and a resolved client into a sale on the backend,
// and reads back or cancels past sales.
package sale

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesdesk/api"
	"salesdesk/cart"
	"salesdesk/customer"
	"salesdesk/pos"
	"salesdesk/pricing"
)

// Authenticator answers who is selling.
type Authenticator interface {
	IsLoggedIn() bool
	CurrentUserID() (int64, bool)
}

// Backend is the part of the API a submission calls.
type Backend interface {
	CreateClient(ctx context.Context, client api.Customer) (api.Customer, error)
	CreateSale(ctx context.Context, req api.SaleRequest) (api.Sale, error)
}

// Catalog supplies fresh stock for validation and is reloaded after a sale.
type Catalog interface {
	cart.StockSource
	Reload(ctx context.Context) error
}

// Result describes a created sale.
type Result struct {
	Sale          api.Sale
	Client        api.Customer
	ClientCreated bool
	Lines         []cart.Line
	PaymentMethod PaymentMethod
	Totals        pricing.Totals
	Message       string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the assembler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// WithDefaultPaymentMethod sets the method selected on a fresh form.
func WithDefaultPaymentMethod(m PaymentMethod) Option {
	return func(a *Assembler) { a.defaultPayment = m }
}

// Assembler owns the sale form: cart, client resolver and payment method.
type Assembler struct {
	auth     Authenticator
	backend  Backend
	catalog  Catalog
	cart     *cart.Cart
	resolver *customer.Resolver
	logger   *zap.Logger

	defaultPayment PaymentMethod
	payment        PaymentMethod
	inFlight       atomic.Bool
}

// NewAssembler wires the form together. The cart and resolver are owned by the
// assembler from here on.
func NewAssembler(auth Authenticator, backend Backend, catalog Catalog, c *cart.Cart, r *customer.Resolver, opts ...Option) *Assembler {
	a := &Assembler{
		auth:           auth,
		backend:        backend,
		catalog:        catalog,
		cart:           c,
		resolver:       r,
		logger:         zap.NewNop(),
		defaultPayment: DefaultPaymentMethod,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	a.payment = a.defaultPayment
	return a
}

// Cart is the cart being built.
func (a *Assembler) Cart() *cart.Cart {
	return a.cart
}

// Resolver is the client resolver of the form.
func (a *Assembler) Resolver() *customer.Resolver {
	return a.resolver
}

// PaymentMethod is the selected payment method.
func (a *Assembler) PaymentMethod() PaymentMethod {
	return a.payment
}

// SetPaymentMethod selects how the client pays.
func (a *Assembler) SetPaymentMethod(m PaymentMethod) error {
	parsed, err := ParsePaymentMethod(string(m))
	if err != nil {
		return err
	}
	a.payment = parsed
	return nil
}

// ClearClient resets the client search and the payment method.
func (a *Assembler) ClearClient() {
	a.resolver.Clear()
	a.payment = a.defaultPayment
}

// Totals is the tax breakdown of the current cart.
func (a *Assembler) Totals() pricing.Totals {
	return pricing.For(a.cart)
}

// InFlight reports whether a submission is running.
func (a *Assembler) InFlight() bool {
	return a.inFlight.Load()
}

// Check runs every local precondition of Submit without calling the backend
// and returns the id of the selling user.
func (a *Assembler) Check() (int64, error) {
	if a.auth == nil || !a.auth.IsLoggedIn() {
		return 0, pos.NewUnauthenticated(ErrMsgNotAuthenticated)
	}
	userID, ok := a.auth.CurrentUserID()
	if !ok || userID <= 0 {
		return 0, pos.NewUnauthenticated(ErrMsgNoUser)
	}
	if err := pos.RequireState(a.resolver.Ready(), ErrMsgClientNotReady); err != nil {
		return 0, err
	}
	if err := pos.RequireNotEmpty(a.cart.Lines(), cart.ErrMsgCartEmpty); err != nil {
		return 0, err
	}
	if err := a.cart.Incomplete(); err != nil {
		return 0, err
	}
	if err := a.cart.ValidateStock(a.catalog); err != nil {
		return 0, err
	}
	if a.resolver.State() == customer.Registering {
		if err := customer.Validate(a.resolver.Draft()).CommandError(); err != nil {
			return 0, err
		}
	}
	return userID, nil
}

// Submit creates the client if it is new, then the sale. On success the form
// is reset and the catalog reloaded. On failure the cart and payment method
// are kept so the user can retry. If the client was created and the sale then
// fails, the resolver moves from Registering to Found with the created client,
// so a retry does not register it again.
func (a *Assembler) Submit(ctx context.Context) (Result, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInFlight
	}
	defer a.inFlight.Store(false)

	log := a.logger.With(zap.String("attempt", uuid.NewString()))

	userID, err := a.Check()
	if err != nil {
		log.Debug("sale rejected locally", zap.Error(err))
		return Result{}, err
	}

	var (
		client  api.Customer
		created bool
	)
	if a.resolver.State() == customer.Registering {
		client, err = a.backend.CreateClient(ctx, a.resolver.Draft().Client())
		if err != nil {
			log.Warn("creating client failed", zap.Error(err))
			return Result{}, &SubmitError{
				Stage:   StageCreateClient,
				Message: api.UserMessage(err, ErrMsgClientFailed),
				Cause:   err,
			}
		}
		created = true
		a.resolver.Adopt(client)
		log.Info("client created", zap.Int64("client_id", client.ID), zap.String("dni", client.DNI))
	} else {
		client, _ = a.resolver.Client()
	}

	lines := a.cart.Lines()
	req := api.SaleRequest{
		ClientID:      client.ID,
		UserID:        userID,
		PaymentMethod: string(a.payment),
		Lines:         make([]api.SaleLineRequest, 0, len(lines)),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, api.SaleLineRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	sale, err := a.backend.CreateSale(ctx, req)
	if err != nil {
		log.Warn("creating sale failed", zap.Int64("client_id", client.ID), zap.Error(err))
		return Result{}, &SubmitError{
			Stage:   StageCreateSale,
			Message: api.UserMessage(err, ErrMsgSaleFailed),
			Cause:   err,
		}
	}

	result := Result{
		Sale:          sale,
		Client:        client,
		ClientCreated: created,
		Lines:         lines,
		PaymentMethod: a.payment,
		Totals:        pricing.Breakdown(sale.Total),
		Message:       fmt.Sprintf("Sale created successfully. Total: S/. %s", sale.Total.StringFixed(2)),
	}
	log.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("client_id", client.ID),
		zap.String("total", sale.Total.StringFixed(2)),
	)

	a.cart.Clear()
	a.resolver.Clear()
	a.payment = a.defaultPayment
	if err := a.catalog.Reload(ctx); err != nil {
		log.Warn("catalog reload after sale failed", zap.Error(err))
	}
	return result, nil
}
