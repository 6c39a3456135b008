// Package guard gates views on the session's resolution. It holds no state:
// every decision is derived from the current session snapshot.
package guard

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/fjod/go_cart/storefront/internal/session"
)

type Decision int

const (
	// Pending means session resolution is in flight: show a loading
	// indicator and do not navigate.
	Pending Decision = iota
	// Denied means the view needs an authenticated session and the session
	// resolved anonymous.
	Denied
	Granted
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Decide maps a session snapshot to a decision for a view. Views that do
// not require authentication are always granted.
func Decide(state session.State, requiresAuth bool) Decision {
	if !requiresAuth {
		return Granted
	}
	switch state.Resolution {
	case session.Authenticated:
		return Granted
	case session.Anonymous:
		return Denied
	default:
		return Pending
	}
}

const (
	DefaultLoginPath = "/login"
	FromParam        = "from"
	retryAfter       = "1"
)

type StateSource interface {
	State() session.State
}

type DecisionRecorder interface {
	RecordGuardDecision(decision string)
}

// LoginRedirect is the login location carrying the requested destination.
func LoginRedirect(loginPath, from string) string {
	return loginPath + "?" + url.Values{FromParam: {from}}.Encode()
}

// ResumeTarget returns where to go after login. Anything that is not a
// local absolute path resumes at "/". Browsers drop tabs and newlines from
// locations, so control characters are refused outright.
func ResumeTarget(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	if strings.ContainsFunc(from, unicode.IsControl) {
		return "/"
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return from
}

// Require returns middleware that serves next only when the session is
// authenticated. Pending answers 503 with Retry-After; denied redirects to
// loginPath with the original path and query in "from".
func Require(src StateSource, rec DecisionRecorder, loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Decide(src.State(), true)
			if rec != nil {
				rec.RecordGuardDecision(decision.String())
			}

			switch decision {
			case Granted:
				next.ServeHTTP(w, r)
			case Denied:
				http.Redirect(w, r, LoginRedirect(loginPath, r.URL.RequestURI()), http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
			}
		})
	}
}
