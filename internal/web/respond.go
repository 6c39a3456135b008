package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain and backend errors to HTTP statuses.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError

	var status int
	var code string
	message := err.Error()

	switch {
	case errors.Is(err, checkout.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, checkout.ErrEmptyCart):
		status, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, checkout.ErrInvalidPayment):
		status, code = http.StatusBadRequest, "invalid_payment"
	case errors.Is(err, checkout.ErrInvalidPostalCode):
		status, code = http.StatusBadRequest, "invalid_postal_code"
	case errors.Is(err, checkout.ErrInvalidRegion):
		status, code = http.StatusBadRequest, "invalid_region"
	case errors.Is(err, cart.ErrInvalidItem):
		status, code = http.StatusBadRequest, "invalid_item"
	case errors.Is(err, catalog.ErrProductNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		status, code = http.StatusNotFound, "not_found"
		message = backend.MessageOf(err, message)
	default:
		s.log.Warn("backend call failed", zap.Error(err))
		status, code = http.StatusBadGateway, "backend_error"
		message = backend.MessageOf(err, "backend unavailable")
	}

	s.respondError(w, status, code, message)
}
