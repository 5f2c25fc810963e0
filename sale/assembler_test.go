package sale

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/api"
	"salesdesk/cart"
	"salesdesk/customer"
	"salesdesk/pos"
)

type fakeAuth struct {
	loggedIn bool
	userID   int64
}

func (f fakeAuth) IsLoggedIn() bool { return f.loggedIn }

func (f fakeAuth) CurrentUserID() (int64, bool) { return f.userID, f.userID > 0 }

type fakeBackend struct {
	mu             sync.Mutex
	clientRequests []api.Customer
	saleRequests   []api.SaleRequest
	createClientFn func(ctx context.Context, c api.Customer) (api.Customer, error)
	createSaleFn   func(ctx context.Context, req api.SaleRequest) (api.Sale, error)
}

func (f *fakeBackend) CreateClient(ctx context.Context, c api.Customer) (api.Customer, error) {
	f.mu.Lock()
	f.clientRequests = append(f.clientRequests, c)
	f.mu.Unlock()
	if f.createClientFn != nil {
		return f.createClientFn(ctx, c)
	}
	c.ID = 101
	return c, nil
}

func (f *fakeBackend) CreateSale(ctx context.Context, req api.SaleRequest) (api.Sale, error) {
	f.mu.Lock()
	f.saleRequests = append(f.saleRequests, req)
	f.mu.Unlock()
	if f.createSaleFn != nil {
		return f.createSaleFn(ctx, req)
	}
	total := decimal.Zero
	for _, l := range req.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return api.Sale{ID: 1001, Total: total, ClientID: req.ClientID, Status: api.SaleCompleted, PaymentMethod: req.PaymentMethod}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clientRequests) + len(f.saleRequests)
}

type fakeCatalog struct {
	products map[int64]api.Product
	reloads  int
	reloadFn func(ctx context.Context) error
}

func (f *fakeCatalog) Product(id int64) (api.Product, bool) {
	p, ok := f.products[id]
	return p, ok
}

func (f *fakeCatalog) Reload(ctx context.Context) error {
	f.reloads++
	if f.reloadFn != nil {
		return f.reloadFn(ctx)
	}
	return nil
}

type fakeLookup struct {
	clients map[string]api.Customer
}

func (f fakeLookup) GetClientByDNI(_ context.Context, dni string) (api.Customer, error) {
	if c, ok := f.clients[dni]; ok {
		return c, nil
	}
	return api.Customer{}, api.StatusError(http.StatusNotFound, "Cliente no encontrado")
}

var (
	widget = api.Product{ID: 7, Name: "Widget", CategoryID: 1, Quantity: 5, SalePrice: decimal.RequireFromString("10.00")}
	gadget = api.Product{ID: 8, Name: "Gadget", CategoryID: 2, Quantity: 1, SalePrice: decimal.RequireFromString("4.50")}
	ana    = api.Customer{ID: 11, Name: "Ana", DNI: "12345678", Address: "Av. Sol 123"}
)

type fixture struct {
	auth      *fakeAuth
	backend   *fakeBackend
	catalog   *fakeCatalog
	assembler *Assembler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:    &fakeAuth{loggedIn: true, userID: 3},
		backend: &fakeBackend{},
		catalog: &fakeCatalog{products: map[int64]api.Product{7: widget, 8: gadget}},
	}
	resolver := customer.NewResolver(fakeLookup{clients: map[string]api.Customer{ana.DNI: ana}}, nil)
	f.assembler = NewAssembler(authProxy{f.auth}, f.backend, f.catalog, cart.New(), resolver)
	return f
}

// authProxy lets a test flip login state after the assembler is built.
type authProxy struct{ a *fakeAuth }

func (p authProxy) IsLoggedIn() bool { return p.a.IsLoggedIn() }

func (p authProxy) CurrentUserID() (int64, bool) { return p.a.CurrentUserID() }

func (f *fixture) foundClientWithWidgets(t *testing.T, qty int) {
	t.Helper()
	require.NoError(t, f.assembler.Resolver().Search(context.Background(), ana.DNI))
	require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, qty))
}

func TestSubmit_ExistingClient(t *testing.T) {
	f := newFixture(t)
	f.foundClientWithWidgets(t, 3)
	require.NoError(t, f.assembler.SetPaymentMethod(PaymentYape))

	res, err := f.assembler.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, f.backend.saleRequests, 1)
	assert.Empty(t, f.backend.clientRequests)
	req := f.backend.saleRequests[0]
	assert.Equal(t, int64(11), req.ClientID)
	assert.Equal(t, int64(3), req.UserID)
	assert.Equal(t, "YAPE", req.PaymentMethod)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, int64(7), req.Lines[0].ProductID)
	assert.Equal(t, 3, req.Lines[0].Quantity)
	assert.True(t, req.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)))

	assert.Equal(t, "Sale created successfully. Total: S/. 30.00", res.Message)
	assert.False(t, res.ClientCreated)
	assert.Equal(t, PaymentYape, res.PaymentMethod)
	assert.Len(t, res.Lines, 1)

	assert.True(t, f.assembler.Cart().IsEmpty())
	assert.Equal(t, customer.Unresolved, f.assembler.Resolver().State())
	assert.Equal(t, DefaultPaymentMethod, f.assembler.PaymentMethod())
	assert.Equal(t, 1, f.catalog.reloads)
}

func TestSubmit_SubCentPriceNeverReachesBackend(t *testing.T) {
	f := newFixture(t)
	f.foundClientWithWidgets(t, 1)

	err := f.assembler.Cart().SetUnitPrice(0, decimal.RequireFromString("0.004"))
	require.True(t, pos.HasCode(err, pos.StatusInvalidArgument))

	_, err = f.assembler.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, f.backend.saleRequests, 1)
	assert.True(t, f.backend.saleRequests[0].Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestSubmit_ServerTotalInMessage(t *testing.T) {
	f := newFixture(t)
	f.backend.createSaleFn = func(context.Context, api.SaleRequest) (api.Sale, error) {
		return api.Sale{ID: 1001, Total: decimal.NewFromInt(118)}, nil
	}
	f.foundClientWithWidgets(t, 1)

	res, err := f.assembler.Submit(context.Background())
	require.NoError(t, err)

	assert.Contains(t, res.Message, "118.00")
	assert.True(t, f.assembler.Cart().IsEmpty())
	assert.Equal(t, customer.Unresolved, f.assembler.Resolver().State())
	assert.Equal(t, 1, f.catalog.reloads)
	assert.Equal(t, "18.00", res.Totals.Rounded().Tax.StringFixed(2))
}

func TestSubmit_NewClientCreatedFirst(t *testing.T) {
	f := newFixture(t)
	var order []string
	f.backend.createClientFn = func(_ context.Context, c api.Customer) (api.Customer, error) {
		order = append(order, "client")
		c.ID = 101
		return c, nil
	}
	f.backend.createSaleFn = func(_ context.Context, req api.SaleRequest) (api.Sale, error) {
		order = append(order, "sale")
		assert.Equal(t, int64(101), req.ClientID)
		return api.Sale{ID: 1001, Total: decimal.NewFromInt(10)}, nil
	}

	r := f.assembler.Resolver()
	require.NoError(t, r.Search(context.Background(), "99999999"))
	require.NoError(t, r.UpdateDraft(customer.Draft{Name: " Luis ", Phone: "912345678", Address: "Jr. Luna 4"}))
	require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 1))

	res, err := f.assembler.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"client", "sale"}, order)
	assert.True(t, res.ClientCreated)
	assert.Equal(t, int64(101), res.Client.ID)
	require.Len(t, f.backend.clientRequests, 1)
	assert.Equal(t, api.Customer{Name: "Luis", DNI: "99999999", Phone: "912345678", Address: "Jr. Luna 4"}, f.backend.clientRequests[0])
}

func TestSubmit_ClientCreationFailureAbortsSale(t *testing.T) {
	f := newFixture(t)
	f.backend.createClientFn = func(context.Context, api.Customer) (api.Customer, error) {
		return api.Customer{}, api.StatusError(http.StatusConflict, "Ya existe un cliente con el DNI 99999999")
	}
	r := f.assembler.Resolver()
	require.NoError(t, r.Search(context.Background(), "99999999"))
	require.NoError(t, r.UpdateDraft(customer.Draft{Name: "Luis", Address: "Jr. Luna 4"}))
	require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 2))

	_, err := f.assembler.Submit(context.Background())

	se := AsSubmitError(err)
	require.NotNil(t, se)
	assert.Equal(t, StageCreateClient, se.Stage)
	assert.Equal(t, "Ya existe un cliente con el DNI 99999999", se.Message)
	assert.Empty(t, f.backend.saleRequests)
	assert.Equal(t, customer.Registering, r.State())
	assert.Equal(t, 1, f.assembler.Cart().Len())
	assert.Zero(t, f.catalog.reloads)
}

func TestSubmit_SaleFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.backend.createSaleFn = func(context.Context, api.SaleRequest) (api.Sale, error) {
		return api.Sale{}, api.StatusError(http.StatusBadRequest, "Stock insuficiente para Widget")
	}
	f.foundClientWithWidgets(t, 3)
	require.NoError(t, f.assembler.SetPaymentMethod(PaymentCard))

	_, err := f.assembler.Submit(context.Background())

	se := AsSubmitError(err)
	require.NotNil(t, se)
	assert.Equal(t, StageCreateSale, se.Stage)
	assert.Equal(t, "Stock insuficiente para Widget", se.Message)
	assert.Equal(t, 1, f.assembler.Cart().Len())
	assert.Equal(t, customer.Found, f.assembler.Resolver().State())
	assert.Equal(t, PaymentCard, f.assembler.PaymentMethod())
	assert.Zero(t, f.catalog.reloads)
}

func TestSubmit_GenericMessageWithoutServerText(t *testing.T) {
	f := newFixture(t)
	f.backend.createSaleFn = func(context.Context, api.SaleRequest) (api.Sale, error) {
		return api.Sale{}, api.ConnectionError(errors.New("connection refused"))
	}
	f.foundClientWithWidgets(t, 1)

	_, err := f.assembler.Submit(context.Background())

	se := AsSubmitError(err)
	require.NotNil(t, se)
	assert.Equal(t, ErrMsgSaleFailed, se.Message)
}

func TestSubmit_RetryAfterSaleFailureReusesCreatedClient(t *testing.T) {
	f := newFixture(t)
	fail := true
	f.backend.createSaleFn = func(_ context.Context, req api.SaleRequest) (api.Sale, error) {
		if fail {
			return api.Sale{}, api.StatusError(http.StatusInternalServerError, "")
		}
		return api.Sale{ID: 1002, ClientID: req.ClientID, Total: decimal.NewFromInt(10)}, nil
	}
	r := f.assembler.Resolver()
	require.NoError(t, r.Search(context.Background(), "99999999"))
	require.NoError(t, r.UpdateDraft(customer.Draft{Name: "Luis", Address: "Jr. Luna 4"}))
	require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 1))

	_, err := f.assembler.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, customer.Found, r.State())

	fail = false
	_, err = f.assembler.Submit(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.backend.clientRequests, 1)
	assert.Equal(t, int64(101), f.backend.saleRequests[1].ClientID)
}

func TestSubmit_ReloadFailureDoesNotFailSale(t *testing.T) {
	f := newFixture(t)
	f.catalog.reloadFn = func(context.Context) error { return errors.New("down") }
	f.foundClientWithWidgets(t, 1)

	_, err := f.assembler.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.catalog.reloads)
}

func TestSubmit_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(t *testing.T, f *fixture)
		code    pos.StatusCode
		message string
	}{
		{
			name:    "not logged in",
			arrange: func(t *testing.T, f *fixture) { f.foundClientWithWidgets(t, 1); f.auth.loggedIn = false },
			code:    pos.StatusUnauthenticated,
			message: ErrMsgNotAuthenticated,
		},
		{
			name:    "no user id",
			arrange: func(t *testing.T, f *fixture) { f.foundClientWithWidgets(t, 1); f.auth.userID = 0 },
			code:    pos.StatusUnauthenticated,
			message: ErrMsgNoUser,
		},
		{
			name: "client unresolved",
			arrange: func(t *testing.T, f *fixture) {
				require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 1))
			},
			code:    pos.StatusFailedPrecondition,
			message: ErrMsgClientNotReady,
		},
		{
			name: "empty cart",
			arrange: func(t *testing.T, f *fixture) {
				require.NoError(t, f.assembler.Resolver().Search(context.Background(), ana.DNI))
			},
			code:    pos.StatusFailedPrecondition,
			message: cart.ErrMsgCartEmpty,
		},
		{
			name: "line without product",
			arrange: func(t *testing.T, f *fixture) {
				f.foundClientWithWidgets(t, 1)
				f.assembler.Cart().AddLine()
			},
			code:    pos.StatusFailedPrecondition,
			message: "Line 2 has no product selected",
		},
		{
			name: "stock dropped",
			arrange: func(t *testing.T, f *fixture) {
				f.foundClientWithWidgets(t, 4)
				low := widget
				low.Quantity = 2
				f.catalog.products[7] = low
			},
			code:    pos.StatusFailedPrecondition,
			message: "Insufficient stock for Widget. Available stock: 2",
		},
		{
			name: "invalid new client",
			arrange: func(t *testing.T, f *fixture) {
				require.NoError(t, f.assembler.Resolver().Search(context.Background(), "99999999"))
				require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 1))
			},
			code:    pos.StatusInvalidArgument,
			message: "name: is required; address: is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.arrange(t, f)

			_, err := f.assembler.Submit(context.Background())

			cmdErr := pos.AsCommandError(err)
			require.NotNil(t, cmdErr, "expected CommandError, got %v", err)
			assert.Equal(t, tt.code, cmdErr.Code)
			assert.Equal(t, tt.message, cmdErr.Message)
			assert.Zero(t, f.backend.calls(), "no network call expected")
			assert.False(t, f.assembler.InFlight())
		})
	}
}

func TestSubmit_RejectsReentrantCall(t *testing.T) {
	f := newFixture(t)
	f.foundClientWithWidgets(t, 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.backend.createSaleFn = func(context.Context, api.SaleRequest) (api.Sale, error) {
		close(entered)
		<-release
		return api.Sale{ID: 1001, Total: decimal.NewFromInt(10)}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.assembler.Submit(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, f.assembler.InFlight())
	_, err := f.assembler.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.assembler.InFlight())
	assert.Len(t, f.backend.saleRequests, 1)
}

func TestClearClient_ResetsPayment(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.assembler.Resolver().Search(context.Background(), ana.DNI))
	require.NoError(t, f.assembler.SetPaymentMethod(PaymentTransfer))

	f.assembler.ClearClient()

	assert.Equal(t, customer.Unresolved, f.assembler.Resolver().State())
	assert.Equal(t, DefaultPaymentMethod, f.assembler.PaymentMethod())
}

func TestWithDefaultPaymentMethod(t *testing.T) {
	resolver := customer.NewResolver(fakeLookup{}, nil)
	a := NewAssembler(fakeAuth{}, &fakeBackend{}, &fakeCatalog{}, cart.New(), resolver, WithDefaultPaymentMethod(PaymentPlin))
	assert.Equal(t, PaymentPlin, a.PaymentMethod())

	assert.Error(t, a.SetPaymentMethod("BITCOIN"))
	assert.Equal(t, PaymentPlin, a.PaymentMethod())
}

func TestTotals_FollowCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.assembler.Cart().AddOrIncrement(widget, 3))

	totals := f.assembler.Totals().Rounded()
	assert.Equal(t, "30.00", totals.Grand.StringFixed(2))
	assert.Equal(t, "4.58", totals.Tax.StringFixed(2))
	assert.Equal(t, "25.42", totals.Net.StringFixed(2))
}
