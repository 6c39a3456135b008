package domain

// Identity is the authenticated customer record returned by /auth/me and
// /auth/login. Field names on the wire follow the backend. CreatedAt is
// kept as the raw string because the backend emits naive timestamps.
type Identity struct {
	ID        string `json:"id"`
	FullName  string `json:"nome_completo"`
	Email     string `json:"email"`
	Phone     string `json:"telefone"`
	TaxID     string `json:"cpf"`
	CreatedAt string `json:"created_at,omitempty"`

	Address
}

// Address holds the postal address fields shared by identities, orders
// and postal lookups.
type Address struct {
	PostalCode string `json:"cep,omitempty"`
	Street     string `json:"rua,omitempty"`
	Number     string `json:"numero,omitempty"`
	District   string `json:"bairro,omitempty"`
	City       string `json:"cidade,omitempty"`
	State      string `json:"estado,omitempty"`
}

// Registration is the payload for /auth/register.
type Registration struct {
	FullName string `json:"nome_completo"`
	Email    string `json:"email"`
	Phone    string `json:"telefone"`
	TaxID    string `json:"cpf"`
	Secret   string `json:"senha"`
	Address
}

// Result is what user-initiated actions hand back for display.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Succeeded builds a success Result.
func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// Failed builds a failure Result.
func Failed(message string) Result {
	return Result{Success: false, Message: message}
}
