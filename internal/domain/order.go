package domain

import "strings"

// OrderStatus is the backend's order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pendente"
	OrderStatusPaid      OrderStatus = "pago"
	OrderStatusCancelled OrderStatus = "cancelado"
	OrderStatusError     OrderStatus = "erro"
)

// Label is the human readable status shown in the account view.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusPaid:
		return "Paid"
	case OrderStatusCancelled:
		return "Cancelled"
	case OrderStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// PaymentType is the payment method selected at checkout.
type PaymentType string

const (
	PaymentCreditCard PaymentType = "credit_card"
	PaymentPayPal     PaymentType = "paypal"
	PaymentPix        PaymentType = "pix"
	PaymentBoleto     PaymentType = "boleto"
	PaymentTransfer   PaymentType = "transferencia"
)

// PaymentPlatforms lists the platforms accepted for every payment type.
var PaymentPlatforms = map[PaymentType][]string{
	PaymentCreditCard: {"mercadopago", "infinitepay", "pagseguro"},
	PaymentPayPal:     {"paypal"},
	PaymentPix:        {"bb", "itau"},
	PaymentBoleto:     {"bb", "itau"},
	PaymentTransfer:   {"bb", "itau"},
}

// Customer is the buyer block of an order.
type Customer struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
	Phone string `json:"telefone"`
	TaxID string `json:"cpf"`
}

// Payment is the payment selection of an order.
type Payment struct {
	Type     PaymentType `json:"tipo"`
	Platform string      `json:"plataforma,omitempty"`
	Bank     string      `json:"banco,omitempty"`
}

// Valid reports whether the platform is one offered for the payment type.
// An empty platform is accepted; the backend picks its default.
func (p Payment) Valid() bool {
	platforms, ok := PaymentPlatforms[p.Type]
	if !ok {
		return false
	}
	if p.Platform == "" {
		return true
	}
	for _, platform := range platforms {
		if platform == p.Platform {
			return true
		}
	}
	return false
}

// OrderRequest is the payload for /orders/create.
type OrderRequest struct {
	Items    Cart     `json:"carrinho"`
	Customer Customer `json:"cliente"`
	Address  Address  `json:"endereco"`
	Payment  Payment  `json:"pagamento"`
	Total    float64  `json:"total"`
}

// Confirmation is the backend's answer to a placed order.
type Confirmation struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PaymentID  string `json:"payment_id,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
}

// Order is an entry of the customer's order history.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Items     Cart        `json:"carrinho"`
	Customer  Customer    `json:"cliente"`
	Address   Address     `json:"endereco"`
	Payment   Payment     `json:"pagamento"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	PaymentID string      `json:"payment_id,omitempty"`
	CreatedAt string      `json:"created_at"`
}

// DigitsOnly strips every non-digit rune, the way tax ids and postal codes
// are sent to the backend.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
