package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token and the user record.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	if username == "" || password == "" {
		return AuthResponse{}, InvalidArgumentError("username and password are required")
	}
	var out AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   LoginRequest{Username: username, Password: password},
	}, &out)
	return out, err
}
