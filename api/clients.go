package api

import (
	"context"
	"net/http"
	"net/url"
)

// GetClientByDNI looks a client up by national id. A miss is a *ClientError
// for which IsNotFound reports true.
func (c *Client) GetClientByDNI(ctx context.Context, dni string) (Customer, error) {
	var out Customer
	err := c.do(ctx, request{method: http.MethodGet, path: "/clientes/dni/" + url.PathEscape(dni)}, &out)
	return out, err
}

// CreateClient registers a client and returns it with its server id.
func (c *Client) CreateClient(ctx context.Context, client Customer) (Customer, error) {
	client.ID = 0
	var out Customer
	err := c.do(ctx, request{method: http.MethodPost, path: "/clientes", body: client}, &out)
	return out, err
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := c.do(ctx, request{method: http.MethodGet, path: "/clientes"}, &out)
	return out, err
}
