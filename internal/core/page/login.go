package page

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
	"github.com/99minutos/auth-portal/internal/core/validation"
)

// LoginView is what the login page renders.
type LoginView struct {
	EmailError    string
	PasswordError string
	// Banner holds the backend's reason for a rejected login.
	Banner string
	// Notice holds a session-expiry message. The store copy is cleared as
	// soon as the page picks it up; the page keeps it, across remounts too,
	// until ConsumeView hands it out.
	Notice      string
	Submitting  bool
	SubmitLabel string
	// DemoHint lists test accounts when the portal runs without a backend.
	DemoHint string
}

type LoginOptions struct {
	DemoHint string
}

// LoginController drives the login page.
type LoginController struct {
	store *session.Store
	guard *guard.Guard
	nav   ports.Navigator
	opts  LoginOptions
	log   zerolog.Logger

	mu          sync.Mutex
	view        LoginView
	seen        bool
	lastVersion uint64
	unsubscribe func()
}

func NewLoginController(store *session.Store, g *guard.Guard, nav ports.Navigator, opts LoginOptions, log zerolog.Logger) *LoginController {
	return &LoginController{
		store: store,
		guard: g,
		nav:   nav,
		opts:  opts,
		log:   log.With().Str("page", string(guard.PageLogin)).Logger(),
	}
}

// Mount renders the page afresh, subscribes to the session and runs the guard.
// Mounting an already mounted page is a no-op.
func (c *LoginController) Mount() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return
	}
	c.view = LoginView{Submitting: c.view.Submitting, Notice: c.view.Notice}
	c.seen = false
	c.unsubscribe = func() {}
	c.mu.Unlock()

	unsub := c.store.Subscribe(session.ObserverFunc(c.evaluate))
	c.mu.Lock()
	c.unsubscribe = unsub
	c.mu.Unlock()

	c.evaluate(c.store.Snapshot())
}

// Unmount stops reacting to session changes. An in-flight login still settles.
func (c *LoginController) Unmount() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// evaluate runs the guard once per session version.
func (c *LoginController) evaluate(s domain.Session) {
	c.mu.Lock()
	if c.seen && s.Version <= c.lastVersion {
		c.mu.Unlock()
		return
	}
	c.seen, c.lastVersion = true, s.Version
	d := c.guard.ForLogin(s)
	if d.Allowed() && d.ShowNotice != "" {
		c.view.Notice = d.ShowNotice
	}
	c.mu.Unlock()

	if !d.Allowed() {
		metrics.GuardRedirectsTotal.WithLabelValues(string(guard.PageLogin), d.Redirect).Inc()
		c.log.Debug().Str("target", d.Redirect).Msg("already signed in, redirecting")
		c.nav.Navigate(d.Redirect, d.Options)
		return
	}
	if d.ShowNotice != "" {
		c.store.ClearAuthExpiredMessage()
	}
}

// View returns the current render state.
func (c *LoginController) View() LoginView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// ConsumeView returns the render state and drops the notice from it, so a
// notice is displayed exactly once.
func (c *LoginController) ConsumeView() LoginView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.viewLocked()
	c.view.Notice = ""
	return v
}

func (c *LoginController) viewLocked() LoginView {
	v := c.view
	v.SubmitLabel = LabelSubmit
	if v.Submitting {
		v.SubmitLabel = LabelSubmitting
	}
	v.DemoHint = c.opts.DemoHint
	return v
}

// Submit validates the form and, when both fields pass, starts a login. It
// returns domain.ErrInvalidInput when validation fails (field errors are in
// the view) and domain.ErrSubmitInProgress while a previous login is pending.
// A successful login is followed by the guard's redirect to the dashboard.
func (c *LoginController) Submit(ctx context.Context, email, password string) (*Task, error) {
	emailReason := validation.ValidateEmail(email)
	passwordReason := validation.ValidatePassword(password)

	c.mu.Lock()
	if c.view.Submitting {
		c.mu.Unlock()
		metrics.LoginAttemptsTotal.WithLabelValues("busy").Inc()
		return nil, domain.ErrSubmitInProgress
	}
	c.view.EmailError = reasonMessage(emailReason)
	c.view.PasswordError = reasonMessage(passwordReason)
	if emailReason != validation.Valid || passwordReason != validation.Valid {
		c.mu.Unlock()
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_input").Inc()
		c.log.Debug().
			Stringer("email", emailReason).
			Stringer("password", passwordReason).
			Msg("login form rejected")
		return nil, domain.ErrInvalidInput
	}
	c.view.Banner = ""
	c.view.Submitting = true
	c.mu.Unlock()

	return startTask(ctx, func(ctx context.Context) (err error) {
		defer func() {
			c.mu.Lock()
			c.view.Submitting = false
			if err != nil {
				c.view.Banner = domain.MessageOf(err, MsgLoginFailed)
			}
			c.mu.Unlock()
		}()

		if err := c.store.Login(ctx, email, password); err != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			c.log.Info().Err(err).Msg("login failed")
			return err
		}
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		return nil
	}), nil
}
