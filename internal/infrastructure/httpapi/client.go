// Package httpapi talks to the portal backend over HTTP/JSON. It implements
// the authentication and product ports and keeps the bearer token for the
// current session.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	defaultBackoff = 200 * time.Millisecond
	maxErrorBody   = 64 << 10
)

// Config captures the settings for reaching the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Retries is how many times a failed product fetch is retried when the
	// failure looks transient. Login is never retried.
	Retries uint64
}

// UnauthorizedFunc is called when an authenticated request is refused, so the
// session can be marked expired.
type UnauthorizedFunc func()

type Client struct {
	baseURL string
	http    *http.Client
	retries uint64
	backoff time.Duration
	log     zerolog.Logger

	mu             sync.Mutex
	token          string
	onUnauthorized UnauthorizedFunc
}

// New creates a Client. A default timeout is applied when none is provided.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retries: cfg.Retries,
		backoff: defaultBackoff,
		log:     log,
	}
}

// OnUnauthorized registers the callback for 401 responses to authenticated requests.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Token returns the bearer token of the current session, if any.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SessionChanged drops the token once the session ends.
func (c *Client) SessionChanged(s domain.Session) {
	if s.Authenticated {
		return
	}
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *userRecord `json:"user"`
}

type userRecord struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// errorBody accepts both {"message": ...} and {"error": ...} envelopes.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Login handles POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var resp loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.Token == "" {
		return nil, &domain.APIError{Status: http.StatusBadGateway, Err: errors.New("login response missing user or token")}
	}
	role, err := domain.ParseRole(resp.User.Role)
	if err != nil {
		return nil, &domain.APIError{Status: http.StatusBadGateway, Err: fmt.Errorf("login response role %q: %w", resp.User.Role, err)}
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	return &domain.User{Username: resp.User.Username, Email: resp.User.Email, Role: role}, nil
}

// GetProducts handles GET /products. Transient failures are retried with
// exponential backoff; a refused token never is.
func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		out = nil
		err := c.do(ctx, "products", http.MethodGet, "/products", nil, true, &out)
		if transient(err) {
			c.log.Debug().Err(err).Msg("product fetch failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transient reports failures worth another attempt: no response at all, or a
// gateway-class status.
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case 0, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Ping reports whether the backend answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("ping: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body any, authenticated bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return &domain.APIError{Err: fmt.Errorf("%s: %w", endpoint, err)}
	}
	defer resp.Body.Close()
	metrics.APIRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &domain.APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			apiErr.Err = domain.ErrUnauthorized
			c.unauthorized(endpoint)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.APIError{Status: resp.StatusCode, Err: fmt.Errorf("%s: decode response: %w", endpoint, err)}
	}
	return nil
}

func (c *Client) unauthorized(endpoint string) {
	c.mu.Lock()
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()

	c.log.Warn().Str("endpoint", endpoint).Msg("backend refused session token")
	if fn != nil {
		fn()
	}
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
