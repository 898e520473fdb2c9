// Package mockapi is an in-process stand-in for the portal backend, used when
// no backend URL is configured. It verifies demo accounts and issues
// short-lived tokens exactly like the real API would, so the whole session
// lifecycle (including expiry) can be exercised locally.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-portal/internal/core/domain"
)

const (
	defaultTokenTTL = time.Hour

	MsgBadCredentials = "帳號或密碼錯誤"
	MsgTokenExpired   = "登入已過期，請重新登入"
)

// Account is a demo login.
type Account struct {
	Email    string
	Username string
	Role     domain.Role
	Password string
}

// DemoAccounts are the logins advertised on the login page in demo mode.
var DemoAccounts = []Account{
	{Email: "admin@example.com", Username: "Admin", Role: domain.RoleAdmin, Password: "admin1234"},
	{Email: "user@example.com", Username: "TestUser", Role: domain.RoleUser, Password: "password123"},
}

// DemoProducts is the catalog served in demo mode.
var DemoProducts = []domain.Product{
	{ID: 1, Name: "Mechanical Keyboard", Price: 2490, Description: "87-key, hot-swappable switches"},
	{ID: 2, Name: "USB-C Dock", Price: 3290, Description: "Dual display, 100W passthrough"},
	{ID: 3, Name: "Noise Cancelling Headset", Price: 4590, Description: "Wireless, 30h battery"},
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
	// Latency delays every call, to make loading states visible.
	Latency time.Duration
	// Cost is the bcrypt cost for hashing demo passwords.
	Cost int
}

type account struct {
	user domain.User
	hash []byte
}

type API struct {
	accounts map[string]account
	products []domain.Product
	secret   []byte
	ttl      time.Duration
	latency  time.Duration
	now      func() time.Time

	mu             sync.Mutex
	token          string
	onUnauthorized func()
}

// New hashes the given accounts and returns a ready API.
func New(cfg Config, accounts []Account, products []domain.Product) (*API, error) {
	if cfg.Secret == "" {
		return nil, errors.New("mockapi: secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	cost := cfg.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	a := &API{
		accounts: make(map[string]account, len(accounts)),
		products: append([]domain.Product(nil), products...),
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		latency:  cfg.Latency,
		now:      time.Now,
	}
	for _, acc := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("mockapi: hash %s: %w", acc.Email, err)
		}
		a.accounts[strings.ToLower(acc.Email)] = account{
			user: domain.User{Username: acc.Username, Email: acc.Email, Role: acc.Role},
			hash: hash,
		}
	}
	return a, nil
}

// DemoHint renders the account list for the login page.
func DemoHint(accounts []Account) string {
	parts := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		parts = append(parts, acc.Email+" / "+acc.Password)
	}
	return "測試帳號：" + strings.Join(parts, "、")
}

// Ping always succeeds; the mock lives in-process.
func (a *API) Ping(context.Context) error { return nil }

func (a *API) OnUnauthorized(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUnauthorized = fn
}

func (a *API) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// SessionChanged drops the token once the session ends.
func (a *API) SessionChanged(s domain.Session) {
	if s.Authenticated {
		return
	}
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

// Login checks the credentials. Unknown accounts and wrong passwords get the
// same answer.
func (a *API) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	acc, ok := a.accounts[strings.ToLower(email)]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: MsgBadCredentials, Err: domain.ErrInvalidCredentials}
	}

	token, err := a.generateToken(acc.user)
	if err != nil {
		return nil, &domain.APIError{Status: http.StatusInternalServerError, Err: err}
	}
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	u := acc.user
	return &u, nil
}

// GetProducts requires a live token, like the real endpoint.
func (a *API) GetProducts(ctx context.Context) ([]domain.Product, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if err := a.verify(a.Token()); err != nil {
		a.mu.Lock()
		a.token = ""
		fn := a.onUnauthorized
		a.mu.Unlock()
		if fn != nil {
			fn()
		}
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: MsgTokenExpired, Err: domain.ErrUnauthorized}
	}
	return append([]domain.Product(nil), a.products...), nil
}

func (a *API) generateToken(u domain.User) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":      u.Email,
		"username": u.Username,
		"role":     string(u.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(a.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.secret)
}

func (a *API) verify(token string) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	tkn, err := parser.Parse(token, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid {
		return domain.ErrUnauthorized
	}
	return nil
}

func (a *API) wait(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
