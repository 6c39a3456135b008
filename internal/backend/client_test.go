package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeBackend) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get(AuthorizationHeader),
		RequestID:     r.Header.Get(RequestIDHeader),
		Body:          string(body),
	})
}

func (f *fakeBackend) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setupClient(t *testing.T, routes map[string]http.HandlerFunc) (*Client, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			fb.record(r)
			h(w, r)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}, nil, nil)
	return client, fb
}

func TestClient_AttachesBearerOnlyWhenTokenSet(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/auth/me": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.Identity{ID: "u1", Email: "ana@example.com"})
		},
	})
	ctx := context.Background()

	_, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Empty(t, fb.last().Authorization)
	assert.NotEmpty(t, fb.last().RequestID)

	client.SetToken("tok-1")
	id, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", fb.last().Authorization)
	assert.Equal(t, "u1", id.ID)

	client.SetToken("")
	_, err = client.Me(ctx)
	require.NoError(t, err)
	assert.Empty(t, fb.last().Authorization)
}

func TestClient_PropagatesRequestID(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/auth/me": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.Identity{})
		},
	})

	_, err := client.Me(WithRequestID(context.Background(), "req-42"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", fb.last().RequestID)
}

func TestClient_ContextTokenOverridesCurrent(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/cart/save": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
		},
	})
	client.SetToken("tok-b")

	err := client.SaveCart(WithToken(context.Background(), "tok-a"), domain.Cart{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-a", fb.last().Authorization)

	err = client.SaveCart(context.Background(), domain.Cart{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-b", fb.last().Authorization)
}

func TestMe_Unauthorized(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/auth/me": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token inválido"})
		},
	})

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Token inválido", apiErr.Message)
}

func TestLogin_SuccessAndRejection(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/auth/login": func(w http.ResponseWriter, r *http.Request) {
			var req loginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Secret != "right" {
				writeJSON(w, http.StatusOK, LoginResponse{Success: false, Message: "wrong email or password"})
				return
			}
			writeJSON(w, http.StatusOK, LoginResponse{
				Success: true,
				Message: "welcome",
				User:    &domain.Identity{ID: "u1", Email: req.Email},
				Token:   "tok-1",
			})
		},
	})
	ctx := context.Background()

	resp, err := client.Login(ctx, "ana@example.com", "right")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "tok-1", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.JSONEq(t, `{"email":"ana@example.com","senha":"right"}`, fb.last().Body)

	resp, err = client.Login(ctx, "ana@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "wrong email or password", resp.Message)
}

func TestRegister_ValidationDetailFallsBack(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/auth/register": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": []map[string]string{{"msg": "field required"}},
			})
		},
	})

	_, err := client.Register(context.Background(), domain.Registration{Email: "x@example.com"})
	require.Error(t, err)
	assert.Equal(t, "registration failed", MessageOf(err, "registration failed"))
}

func TestGetCart_DecodesEnvelope(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/cart/get": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "ok",
				"data": map[string]any{"cart": []domain.CartItem{
					{ID: "B", Name: "Tablet", Price: 899.99, Quantity: 1},
				}},
			})
		},
	})

	cart, err := client.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "B", cart[0].ID)
}

func TestGetCart_MissingCartIsEmpty(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/cart/get": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "empty", "data": map[string]any{}})
		},
	})

	cart, err := client.GetCart(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestSaveCart_SendsFullSnapshotArray(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/cart/save": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "saved"})
		},
	})

	err := client.SaveCart(context.Background(), domain.Cart{{ID: "A", Price: 2, Quantity: 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"A","name":"","price":2,"quantity":3,"image":""}]`, fb.last().Body)

	require.NoError(t, client.SaveCart(context.Background(), nil))
	assert.JSONEq(t, `[]`, fb.last().Body)
}

func TestEnvelope_FailureIsRejected(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/utils/cep/{code}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "postal code not found"})
		},
	})

	_, err := client.LookupPostalCode(context.Background(), "00000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "postal code not found", MessageOf(err, "lookup failed"))
}

func TestLookupPostalCodeAndShipping(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"GET /api/utils/cep/{code}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{"endereco": map[string]string{
					"cep": "01310-100", "rua": "Avenida Paulista", "bairro": "Bela Vista",
					"cidade": "São Paulo", "estado": "SP",
				}},
			})
		},
		"GET /api/utils/shipping/{region}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"shipping_cost": 15.0, "estado": r.PathValue("region")},
			})
		},
	})
	ctx := context.Background()

	addr, err := client.LookupPostalCode(ctx, "01310100")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "/api/utils/cep/01310100", fb.last().Path)

	cost, err := client.ShippingQuote(ctx, "SP")
	require.NoError(t, err)
	assert.InDelta(t, 15.0, cost, 1e-9)
}

func TestCreateOrderAndMyOrders(t *testing.T) {
	client, fb := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/orders/create": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.Confirmation{Success: true, Message: "paid", PaymentID: "mp_1", Redirect: "/confirmacao"})
		},
		"GET /api/orders/my-orders": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{"orders": []domain.Order{
					{ID: "o1", Status: domain.OrderStatusPaid, Total: 30},
				}},
			})
		},
	})
	ctx := context.Background()

	conf, err := client.CreateOrder(ctx, domain.OrderRequest{
		Items:   domain.Cart{{ID: "A", Price: 15, Quantity: 1}},
		Payment: domain.Payment{Type: domain.PaymentCreditCard, Platform: "mercadopago"},
		Total:   30,
	})
	require.NoError(t, err)
	assert.Equal(t, "mp_1", conf.PaymentID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fb.last().Body), &sent))
	assert.Contains(t, sent, "carrinho")
	assert.Contains(t, sent, "pagamento")

	orders, err := client.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPaid, orders[0].Status)
}

func TestBreaker_OpensAfterServerFailures(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"POST /api/cart/save": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			mu.Unlock()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Erro ao salvar carrinho"})
		},
	})
	ctx := context.Background()

	for range 2 {
		require.Error(t, client.SaveCart(ctx, domain.Cart{}))
	}
	err := client.SaveCart(ctx, domain.Cart{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	client, _ := setupClient(t, map[string]http.HandlerFunc{
		"DELETE /api/cart/clear": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
		},
	})
	ctx := context.Background()

	for range 4 {
		err := client.ClearCart(ctx)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "backend returned status 500", (&APIError{Status: 500}).Error())
	assert.Equal(t, "fallback", MessageOf(context.DeadlineExceeded, "fallback"))
}
