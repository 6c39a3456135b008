package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"senha"`
}

// LoginResponse is the /auth/login answer.
type LoginResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *domain.Identity `json:"user,omitempty"`
	Token   string           `json:"token,omitempty"`
}

// Me fetches the identity bound to the current token.
func (c *Client) Me(ctx context.Context) (domain.Identity, error) {
	var id domain.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// Login exchanges credentials for a token. A rejected login is a normal
// answer (Success=false), not an error.
func (c *Client) Login(ctx context.Context, email, secret string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Secret: secret}, &resp)
	return resp, err
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.Result, error) {
	var resp domain.Result
	err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp)
	return resp, err
}
