// Package expiry ends a session locally when its token's exp claim passes,
// without waiting for the backend to refuse a request.
package expiry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/ports"
)

// TokenSource exposes the bearer token obtained by the last login.
type TokenSource interface {
	Token() string
}

// TokenAuthAPI is an authentication API that keeps the issued token.
type TokenAuthAPI interface {
	ports.AuthAPI
	TokenSource
}

// ExpireFunc ends the session with a user-visible message.
type ExpireFunc func(message string)

// Watcher decorates an AuthAPI: after every successful login it arms a timer
// for the token's exp claim. The timer is dropped when the session ends.
type Watcher struct {
	next    TokenAuthAPI
	message string
	log     zerolog.Logger
	now     func() time.Time
	after   func(d time.Duration, f func()) *time.Timer

	mu         sync.Mutex
	expire     ExpireFunc
	timer      *time.Timer
	generation uint64
}

func NewWatcher(next TokenAuthAPI, message string, log zerolog.Logger) *Watcher {
	return &Watcher{
		next:    next,
		message: message,
		log:     log,
		now:     time.Now,
		after:   time.AfterFunc,
	}
}

// OnExpire registers the function called when a token runs out.
func (w *Watcher) OnExpire(fn ExpireFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expire = fn
}

// Login delegates to the wrapped API and arms the expiry timer. A token that
// is already past its exp is refused.
func (w *Watcher) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := w.next.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	exp, ok := expiresAt(w.next.Token())
	if !ok {
		w.log.Debug().Msg("token carries no exp claim, expiry timer not armed")
		return user, nil
	}
	remaining := exp.Sub(w.now())
	if remaining <= 0 {
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: w.message, Err: domain.ErrUnauthorized}
	}
	w.arm(remaining)
	return user, nil
}

// SessionChanged disarms the timer once the session ends.
func (w *Watcher) SessionChanged(s domain.Session) {
	if !s.Authenticated {
		w.disarm()
	}
}

func (w *Watcher) arm(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.generation++
	gen := w.generation
	w.timer = w.after(d, func() { w.fire(gen) })
	w.log.Debug().Dur("in", d).Msg("session expiry armed")
}

func (w *Watcher) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.generation++
}

func (w *Watcher) fire(gen uint64) {
	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	fn := w.expire
	w.mu.Unlock()

	metrics.SessionExpiredTotal.WithLabelValues("token_exp").Inc()
	w.log.Info().Msg("session token expired")
	if fn != nil {
		fn(w.message)
	}
}

// expiresAt reads exp without verifying the signature; the client only
// schedules around it, the backend stays the authority.
func expiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
