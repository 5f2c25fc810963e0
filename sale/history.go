package sale

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"salesdesk/api"
	"salesdesk/pos"
)

// SalesService is the read and cancel side of the sales API.
type SalesService interface {
	ListSales(ctx context.Context) ([]api.Sale, error)
	SalesToday(ctx context.Context) ([]api.Sale, error)
	SalesByClient(ctx context.Context, clientID int64) ([]api.Sale, error)
	GetSale(ctx context.Context, id int64) (api.Sale, error)
	CancelSale(ctx context.Context, id int64) error
}

// History lists past sales and cancels them.
type History struct {
	sales  SalesService
	logger *zap.Logger
}

// NewHistory creates a History over sales.
func NewHistory(sales SalesService, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{sales: sales, logger: logger}
}

// List returns every sale.
func (h *History) List(ctx context.Context) ([]api.Sale, error) {
	sales, err := h.sales.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// Today returns the sales registered today.
func (h *History) Today(ctx context.Context) ([]api.Sale, error) {
	sales, err := h.sales.SalesToday(ctx)
	if err != nil {
		return nil, fmt.Errorf("list today's sales: %w", err)
	}
	return sales, nil
}

// ByClient returns the sales of one client.
func (h *History) ByClient(ctx context.Context, clientID int64) ([]api.Sale, error) {
	if err := pos.RequirePositive(clientID, ErrMsgInvalidClientID); err != nil {
		return nil, err
	}
	sales, err := h.sales.SalesByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list sales of client %d: %w", clientID, err)
	}
	return sales, nil
}

// Get fetches one sale.
func (h *History) Get(ctx context.Context, id int64) (api.Sale, error) {
	if err := pos.RequirePositive(id, ErrMsgInvalidSaleID); err != nil {
		return api.Sale{}, err
	}
	s, err := h.sales.GetSale(ctx, id)
	if err != nil {
		return api.Sale{}, fmt.Errorf("get sale %d: %w", id, err)
	}
	return s, nil
}

// Cancel cancels a completed sale and returns it as the server now reports it.
// A sale that is already cancelled is rejected without calling cancel.
func (h *History) Cancel(ctx context.Context, id int64) (api.Sale, error) {
	s, err := h.Get(ctx, id)
	if err != nil {
		return api.Sale{}, err
	}
	if s.Status == api.SaleCancelled {
		return api.Sale{}, pos.NewFailedPreconditionf(ErrMsgAlreadyCancelled, id)
	}
	if err := h.sales.CancelSale(ctx, id); err != nil {
		return api.Sale{}, fmt.Errorf("cancel sale %d: %w", id, err)
	}
	h.logger.Info("sale cancelled", zap.Int64("sale_id", id))
	return h.Get(ctx, id)
}
