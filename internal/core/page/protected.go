package page

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
)

// Identity is the signed-in user's header block, shared by protected pages.
type Identity struct {
	Username      string
	Initial       string
	RoleLabel     string
	ShowAdminLink bool
}

// protectedPage carries the guard wiring common to pages that require a session.
type protectedPage struct {
	store *session.Store
	guard *guard.Guard
	nav   ports.Navigator
	page  guard.Page
	path  string
	log   zerolog.Logger

	mu          sync.Mutex
	seen        bool
	lastVersion uint64
	allowed     bool
	identity    Identity
	unsubscribe func()
}

func (p *protectedPage) setup(store *session.Store, g *guard.Guard, nav ports.Navigator, page guard.Page, path string, log zerolog.Logger) {
	p.store = store
	p.guard = g
	p.nav = nav
	p.page = page
	p.path = path
	p.log = log.With().Str("page", string(page)).Logger()
}

// mount subscribes and evaluates the guard, reporting whether the page may render.
func (p *protectedPage) mount() bool {
	p.mu.Lock()
	if p.unsubscribe != nil {
		allowed := p.allowed
		p.mu.Unlock()
		return allowed
	}
	p.seen = false
	p.allowed = false
	p.unsubscribe = func() {}
	p.mu.Unlock()

	unsub := p.store.Subscribe(session.ObserverFunc(p.evaluate))
	p.mu.Lock()
	p.unsubscribe = unsub
	p.mu.Unlock()

	p.evaluate(p.store.Snapshot())

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allowed
}

func (p *protectedPage) unmount() {
	p.mu.Lock()
	unsub := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// evaluate runs the guard once per session version.
func (p *protectedPage) evaluate(s domain.Session) {
	p.mu.Lock()
	if p.seen && s.Version <= p.lastVersion {
		p.mu.Unlock()
		return
	}
	p.seen, p.lastVersion = true, s.Version
	d := p.guard.ForProtected(s, p.page, p.path)
	p.allowed = d.Allowed()
	if p.allowed {
		p.identity = identityOf(s.User)
	}
	p.mu.Unlock()

	if !d.Allowed() {
		metrics.GuardRedirectsTotal.WithLabelValues(string(p.page), d.Redirect).Inc()
		p.log.Debug().Str("target", d.Redirect).Msg("guard redirect")
		p.nav.Navigate(d.Redirect, d.Options)
	}
}

func (p *protectedPage) currentIdentity() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity
}

// logout ends the session and leaves for the login page. The page stops
// listening first so its own guard does not race the explicit navigation.
func (p *protectedPage) logout() {
	p.unmount()
	p.store.Logout()
	metrics.LogoutsTotal.Inc()
	p.nav.Navigate(guard.PathLogin, ports.NavigateOptions{Replace: true, State: nil})
}

func identityOf(u *domain.User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{
		Username:      u.Username,
		Initial:       initial(u.Username),
		RoleLabel:     RoleLabel(u.Role),
		ShowAdminLink: guard.CanSeeAdmin(u),
	}
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}
