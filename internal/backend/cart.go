package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type cartData struct {
	Cart domain.Cart `json:"cart"`
}

// GetCart fetches the remote mirror of the cart. An account without a
// stored cart yields an empty cart.
func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var data cartData
	err := c.guarded(func() error {
		_, err := c.doEnvelope(ctx, http.MethodGet, "/cart/get", nil, &data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return domain.Cart{}, nil
	}
	return data.Cart, nil
}

// SaveCart replaces the remote mirror with the full cart.
func (c *Client) SaveCart(ctx context.Context, cart domain.Cart) error {
	return c.guarded(func() error {
		_, err := c.doEnvelope(ctx, http.MethodPost, "/cart/save", cart.Clone(), nil)
		return err
	})
}

// ClearCart deletes the remote mirror.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.guarded(func() error {
		_, err := c.doEnvelope(ctx, http.MethodDelete, "/cart/clear", nil, nil)
		return err
	})
}
