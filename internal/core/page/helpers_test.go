package page

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
)

type navCall struct {
	Path string
	Opts ports.NavigateOptions
}

type recordingNav struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNav) Navigate(path string, opts ports.NavigateOptions) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{Path: path, Opts: opts})
}

func (n *recordingNav) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

type stubAuthAPI struct {
	mu      sync.Mutex
	calls   []domain.Credentials
	loginFn func(ctx context.Context, email, password string) (*domain.User, error)
}

func (s *stubAuthAPI) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.mu.Lock()
	s.calls = append(s.calls, domain.Credentials{Email: email, Password: password})
	fn := s.loginFn
	s.mu.Unlock()
	return fn(ctx, email, password)
}

func (s *stubAuthAPI) Calls() []domain.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Credentials(nil), s.calls...)
}

type stubProductAPI struct {
	getFn func(ctx context.Context) ([]domain.Product, error)
}

func (s *stubProductAPI) GetProducts(ctx context.Context) ([]domain.Product, error) {
	return s.getFn(ctx)
}

func userAPI(u domain.User) *stubAuthAPI {
	return &stubAuthAPI{loginFn: func(context.Context, string, string) (*domain.User, error) {
		out := u
		return &out, nil
	}}
}

func newStore(api ports.AuthAPI) *session.Store {
	return session.NewStore(api, zerolog.Nop())
}

// signedInStore returns a store already holding a session for u.
func signedInStore(t *testing.T, u domain.User) *session.Store {
	t.Helper()
	st := newStore(userAPI(u))
	if err := st.Login(context.Background(), "seed@example.com", "password123"); err != nil {
		t.Fatalf("seed login: %v", err)
	}
	return st
}

func newGuard() *guard.Guard {
	return guard.New(guard.Options{CarryFrom: true})
}

func waitTask(t *testing.T, task *Task) error {
	t.Helper()
	if task == nil {
		t.Fatalf("expected a task, got nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	if err == context.DeadlineExceeded {
		t.Fatalf("task did not settle in time")
	}
	return err
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
