package session

import "github.com/fjod/go_cart/storefront/internal/domain"

// Resolution tracks whether the session has been validated yet.
type Resolution int

const (
	Unresolved Resolution = iota
	Anonymous
	Authenticated
)

func (r Resolution) String() string {
	switch r {
	case Unresolved:
		return "unresolved"
	case Anonymous:
		return "resolved-anonymous"
	case Authenticated:
		return "resolved-authenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. Token and Identity are
// either both set (Authenticated) or both empty.
type State struct {
	Resolution Resolution       `json:"resolution"`
	Token      string           `json:"-"`
	Identity   *domain.Identity `json:"identity,omitempty"`
}

func (s State) Authenticated() bool {
	return s.Resolution == Authenticated
}

func (s State) Resolved() bool {
	return s.Resolution != Unresolved
}
