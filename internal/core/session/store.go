// Package session holds the client-side authentication state shared by every
// page controller.
//
// A Store is the single source of truth for who is signed in. Pages hold a
// reference to it and subscribe to changes; every effective mutation notifies
// subscribers synchronously, after the new state is in place, so a guard
// re-evaluated from a notification never reads stale state.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/ports"
)

// Observer is notified after each state change.
type Observer interface {
	SessionChanged(s domain.Session)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s domain.Session)

func (f ObserverFunc) SessionChanged(s domain.Session) { f(s) }

type Store struct {
	api ports.AuthAPI
	log zerolog.Logger

	mu        sync.Mutex
	user      *domain.User
	expired   string
	version   uint64
	nextID    int
	observers map[int]Observer
	order     []int
}

// NewStore returns an unauthenticated store that verifies credentials via api.
func NewStore(api ports.AuthAPI, log zerolog.Logger) *Store {
	return &Store{
		api:       api,
		log:       log,
		observers: make(map[int]Observer),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Session {
	return copySession(domain.Session{
		Authenticated:      s.user != nil,
		User:               s.user,
		AuthExpiredMessage: s.expired,
		Version:            s.version,
	})
}

func copySession(in domain.Session) domain.Session {
	if in.User != nil {
		u := *in.User
		in.User = &u
	}
	return in
}

// Subscribe registers o and returns a function that removes it. Observers are
// called in subscription order.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Login verifies the credentials with the authentication API. On success the
// returned user becomes the session user and any expiry notice is cleared.
// On failure the collaborator's error is returned as is and the state is left
// untouched. The store itself never tracks an in-flight login.
func (s *Store) Login(ctx context.Context, email, password string) error {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Debug().Err(err).Msg("login rejected")
		return err
	}
	if user == nil {
		return fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if _, err := domain.ParseRole(string(user.Role)); err != nil {
		return fmt.Errorf("login: role %q: %w", user.Role, err)
	}

	u := *user
	s.mutate(func() bool {
		s.user = &u
		s.expired = ""
		return true
	})
	s.log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("session established")
	return nil
}

// Logout clears the session. Calling it on a clean session changes nothing.
func (s *Store) Logout() {
	if s.mutate(func() bool {
		if s.user == nil && s.expired == "" {
			return false
		}
		s.user = nil
		s.expired = ""
		return true
	}) {
		s.log.Info().Msg("session cleared")
	}
}

// MarkExpired ends a session the backend no longer accepts and records a
// message for the login page to show once.
func (s *Store) MarkExpired(message string) {
	if s.mutate(func() bool {
		if s.user == nil && s.expired == message {
			return false
		}
		s.user = nil
		s.expired = message
		return true
	}) {
		s.log.Warn().Str("message", message).Msg("session expired")
	}
}

// ClearAuthExpiredMessage drops the expiry notice once it has been shown.
func (s *Store) ClearAuthExpiredMessage() {
	s.mutate(func() bool {
		if s.expired == "" {
			return false
		}
		s.expired = ""
		return true
	})
}

// mutate applies fn under the lock and, if fn reports a change, bumps the
// version and notifies observers after unlocking. Observers may call back
// into the store.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}
	s.version++
	snap := s.snapshotLocked()
	observers := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		observers = append(observers, s.observers[id])
	}
	s.mu.Unlock()

	for _, o := range observers {
		o.SessionChanged(copySession(snap))
	}
	return true
}
