// Package guard decides whether a page may render for the current session or
// must send the visitor elsewhere. Decisions are pure; acting on them is the
// page controller's job.
package guard

import (
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/ports"
)

const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
)

// Page identifies a guarded page.
type Page string

const (
	PageLogin     Page = "login"
	PageDashboard Page = "dashboard"
	PageAdmin     Page = "admin"
)

// Decision is the result of evaluating a guard.
type Decision struct {
	// Redirect is the target path, empty when the page may render.
	Redirect string
	Options  ports.NavigateOptions
	// ShowNotice is set on the login page when an expiry notice is pending.
	ShowNotice string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Options configures the guard.
type Options struct {
	// CarryFrom attaches the attempted path to login redirects.
	CarryFrom bool
}

type Guard struct {
	opts Options
}

func New(opts Options) *Guard {
	return &Guard{opts: opts}
}

// ForLogin evaluates the login page. A signed-in visitor is bounced to the
// dashboard with no carried state.
func (g *Guard) ForLogin(s domain.Session) Decision {
	if s.Authenticated {
		return Decision{Redirect: PathDashboard, Options: ports.NavigateOptions{Replace: true}}
	}
	return Decision{ShowNotice: s.AuthExpiredMessage}
}

// ForProtected evaluates the dashboard and admin pages. attempted is the path
// the visitor asked for.
func (g *Guard) ForProtected(s domain.Session, page Page, attempted string) Decision {
	if !s.Authenticated || s.User == nil {
		opts := ports.NavigateOptions{Replace: true}
		if g.opts.CarryFrom && attempted != "" {
			opts.State = &ports.RedirectState{From: attempted}
		}
		return Decision{Redirect: PathLogin, Options: opts}
	}
	if page == PageAdmin && !s.User.IsAdmin() {
		return Decision{Redirect: PathDashboard, Options: ports.NavigateOptions{Replace: true}}
	}
	return Decision{}
}

// CanSeeAdmin reports whether admin-only affordances are visible to u.
func CanSeeAdmin(u *domain.User) bool {
	return u != nil && u.IsAdmin()
}
