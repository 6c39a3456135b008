package guard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	state session.State
}

func (s staticSource) State() session.State { return s.state }

type mockRecorder struct {
	mu        sync.Mutex
	decisions []string
}

func (m *mockRecorder) RecordGuardDecision(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decision)
}

var (
	unresolved    = session.State{}
	anonymous     = session.State{Resolution: session.Anonymous}
	authenticated = session.State{
		Resolution: session.Authenticated,
		Token:      "t1",
		Identity:   &domain.Identity{ID: "u1"},
	}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		state        session.State
		requiresAuth bool
		want         Decision
	}{
		{"unresolved protected view", unresolved, true, Pending},
		{"anonymous protected view", anonymous, true, Denied},
		{"authenticated protected view", authenticated, true, Granted},
		{"unresolved public view", unresolved, false, Granted},
		{"anonymous public view", anonymous, false, Granted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.requiresAuth))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "denied", Denied.String())
	assert.Equal(t, "granted", Granted.String())
	assert.Equal(t, "unknown", Decision(42).String())
}

func newRouter(src StateSource, rec DecisionRecorder) http.Handler {
	r := chi.NewRouter()
	r.With(Require(src, rec, "")).Get("/cart", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("cart view"))
	})
	return r
}

func TestRequire_PendingShowsLoading(t *testing.T) {
	rec := &mockRecorder{}
	w := httptest.NewRecorder()

	newRouter(staticSource{unresolved}, rec).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Empty(t, w.Header().Get("Location"))
	assert.JSONEq(t, `{"status":"loading"}`, w.Body.String())
	assert.Equal(t, []string{"pending"}, rec.decisions)
}

func TestRequire_DeniedRedirectsWithDestination(t *testing.T) {
	rec := &mockRecorder{}
	w := httptest.NewRecorder()

	newRouter(staticSource{anonymous}, rec).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart?step=2", nil))

	require.Equal(t, http.StatusSeeOther, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", location.Path)
	assert.Equal(t, "/cart?step=2", location.Query().Get(FromParam))
	assert.Equal(t, []string{"denied"}, rec.decisions)
}

func TestRequire_GrantedServesView(t *testing.T) {
	w := httptest.NewRecorder()

	newRouter(staticSource{authenticated}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart view", w.Body.String())
}

func TestResumeTarget(t *testing.T) {
	assert.Equal(t, "/", ResumeTarget(""))
	assert.Equal(t, "/checkout", ResumeTarget("/checkout"))
	assert.Equal(t, "/", ResumeTarget("https://evil.example"))
	assert.Equal(t, "/", ResumeTarget("//evil.example"))
	assert.Equal(t, "/", ResumeTarget("/\\evil.example"))
	assert.Equal(t, "/", ResumeTarget("/\t/evil.example"))
	assert.Equal(t, "/", ResumeTarget("/\n/evil.example"))
	assert.Equal(t, "/", ResumeTarget("/\x00/evil.example"))
	assert.Equal(t, "/account?tab=orders", ResumeTarget("/account?tab=orders"))
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login?from=%2Faccount", LoginRedirect("/login", "/account"))
}
