package api

import (
	"context"
	"net/http"
	"strconv"
)

// CreateSale submits a sale; the server decrements stock and computes the total.
func (c *Client) CreateSale(ctx context.Context, req SaleRequest) (Sale, error) {
	var out Sale
	err := c.do(ctx, request{method: http.MethodPost, path: "/ventas", body: req}, &out)
	return out, err
}

// GetSale fetches one sale.
func (c *Client) GetSale(ctx context.Context, id int64) (Sale, error) {
	var out Sale
	err := c.do(ctx, request{method: http.MethodGet, path: "/ventas/" + strconv.FormatInt(id, 10)}, &out)
	return out, err
}

// ListSales returns every sale.
func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	err := c.do(ctx, request{method: http.MethodGet, path: "/ventas"}, &out)
	return out, err
}

// SalesToday returns the sales registered today.
func (c *Client) SalesToday(ctx context.Context) ([]Sale, error) {
	var out []Sale
	err := c.do(ctx, request{method: http.MethodGet, path: "/ventas/hoy"}, &out)
	return out, err
}

// SalesByClient returns the sales of one client.
func (c *Client) SalesByClient(ctx context.Context, clientID int64) ([]Sale, error) {
	var out []Sale
	err := c.do(ctx, request{method: http.MethodGet, path: "/ventas/cliente/" + strconv.FormatInt(clientID, 10)}, &out)
	return out, err
}

// CancelSale cancels a sale.
func (c *Client) CancelSale(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/ventas/" + strconv.FormatInt(id, 10) + "/cancelar",
		body:   struct{}{},
	}, nil)
}
