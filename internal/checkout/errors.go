package checkout

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrNotAuthenticated  = errors.New("checkout requires an authenticated session")
	ErrInvalidPayment    = errors.New("payment platform is not offered for the payment type")
	ErrInvalidPostalCode = errors.New("postal code must have 8 digits")
	ErrInvalidRegion     = errors.New("region is required")
)
