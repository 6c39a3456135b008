package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CreateOrder places an order. A payment refusal is a normal answer
// (Success=false), not an error.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
	var conf domain.Confirmation
	err := c.do(ctx, http.MethodPost, "/orders/create", req, &conf)
	return conf, err
}

type ordersData struct {
	Orders []domain.Order `json:"orders"`
}

// MyOrders lists the orders of the authenticated customer, newest first.
func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var data ordersData
	if _, err := c.doEnvelope(ctx, http.MethodGet, "/orders/my-orders", nil, &data); err != nil {
		return nil, err
	}
	if data.Orders == nil {
		return []domain.Order{}, nil
	}
	return data.Orders, nil
}

type addressData struct {
	Address domain.Address `json:"endereco"`
}

// LookupPostalCode resolves a postal code to address fields.
func (c *Client) LookupPostalCode(ctx context.Context, code string) (domain.Address, error) {
	var data addressData
	if _, err := c.doEnvelope(ctx, http.MethodGet, "/utils/cep/"+url.PathEscape(code), nil, &data); err != nil {
		return domain.Address{}, err
	}
	return data.Address, nil
}

type shippingData struct {
	Cost   float64 `json:"shipping_cost"`
	Region string  `json:"estado"`
}

// ShippingQuote returns the shipping cost for a region (state code).
func (c *Client) ShippingQuote(ctx context.Context, region string) (float64, error) {
	var data shippingData
	if _, err := c.doEnvelope(ctx, http.MethodGet, "/utils/shipping/"+url.PathEscape(region), nil, &data); err != nil {
		return 0, err
	}
	return data.Cost, nil
}
