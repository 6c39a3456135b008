package app

import (
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func checkoutForm(addr domain.Address) checkout.Form {
	return checkout.Form{
		Customer: domain.Customer{Name: "Ana Souza", Email: email, Phone: "11912345678", TaxID: "123.456.789-01"},
		Address:  addr,
		Payment:  domain.Payment{Type: domain.PaymentCreditCard, Platform: "mercadopago"},
	}
}
