// Package backend is the REST client for the storefront backend. Every
// request carries the current bearer token when one is set.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"

	maxResponseBody = 1 << 20 // 1MB
)

type Config struct {
	// BaseURL is the backend origin; the client appends /api.
	BaseURL         string
	Timeout         time.Duration
	RateLimit       float64 // requests per second, <= 0 disables limiting
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	base       string
	httpClient *http.Client
	token      atomic.Pointer[string]
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
	log        *zap.Logger
}

// NewClient builds a client. A nil transport uses http.DefaultTransport.
func NewClient(cfg Config, transport http.RoundTripper, log *zap.Logger) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		base: strings.TrimRight(cfg.BaseURL, "/") + "/api",
		log:  log.Named("backend"),
	}

	c.httpClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(&credentialTransport{next: transport, client: c}),
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(cfg.RateLimit) + 1
	}
	c.limiter = rate.NewLimiter(limit, burst)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "cart-mirror",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// the backend answered; only transport and 5xx failures trip
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return c
}

// SetToken sets the bearer token attached to outgoing requests. An empty
// token removes the attachment.
func (c *Client) SetToken(token string) {
	if token == "" {
		c.token.Store(nil)
		return
	}
	c.token.Store(&token)
}

// Token returns the attached bearer token, or "".
func (c *Client) Token() string {
	if t := c.token.Load(); t != nil {
		return *t
	}
	return ""
}

// credentialTransport re-derives the Authorization header on every request:
// a token bound to the request context wins over the current token.
type credentialTransport struct {
	next   http.RoundTripper
	client *Client
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	token, ok := TokenFromContext(req.Context())
	if !ok {
		token = t.client.Token()
	}
	if token != "" {
		req.Header.Set(AuthorizationHeader, "Bearer "+token)
	} else {
		req.Header.Del(AuthorizationHeader)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, RequestIDFromContext(req.Context()))
	}
	return t.next.RoundTrip(req)
}

type requestIDKey struct{}

type tokenKey struct{}

// WithToken binds calls made with ctx to token, whatever the client's
// current token is when they are sent.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token bound by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}

// WithRequestID stores a request id that outgoing calls will propagate.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the propagated request id or a fresh one.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// envelope is the backend's common response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e envelope) detailText() string {
	// validation failures carry a list of objects here; only plain strings
	// are fit for display
	var s string
	if err := json.Unmarshal(e.Detail, &s); err != nil {
		return ""
	}
	return s
}

// do performs one request and decodes a 2xx body into out (when non-nil).
// Non-2xx answers become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
			if apiErr.Message == "" {
				apiErr.Message = env.detailText()
			}
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// doEnvelope performs a request whose body is the {success, message, data}
// wrapper. A success=false answer becomes an *APIError carrying the
// message; data is decoded into out when non-nil.
func (c *Client) doEnvelope(ctx context.Context, method, path string, body, out any) (string, error) {
	var env envelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return "", err
	}
	if !env.Success {
		return env.Message, &APIError{Status: http.StatusOK, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return env.Message, nil
}

// guarded runs a mirror call through the circuit breaker.
func (c *Client) guarded(fn func() error) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}
