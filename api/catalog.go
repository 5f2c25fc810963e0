package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, request{method: http.MethodGet, path: "/categorias"}, &out)
	return out, err
}

// ListActiveCategories returns the categories offered at the point of sale.
func (c *Client) ListActiveCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, request{method: http.MethodGet, path: "/categorias/activas"}, &out)
	return out, err
}

// ListActiveProducts returns the sellable products with their current stock.
func (c *Client) ListActiveProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/productos/activos"}, &out)
	return out, err
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/productos/" + strconv.FormatInt(id, 10)}, &out)
	return out, err
}

// SearchProducts runs the server-side name search.
func (c *Client) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	var out []Product
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/productos/buscar",
		query:  url.Values{"nombre": {name}},
	}, &out)
	return out, err
}

// ProductsByCategory returns the products of one category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	var out []Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/productos/categoria/" + strconv.FormatInt(categoryID, 10)}, &out)
	return out, err
}

// LowStockProducts returns products at or below their minimum stock.
func (c *Client) LowStockProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, request{method: http.MethodGet, path: "/productos/bajo-stock"}, &out)
	return out, err
}
