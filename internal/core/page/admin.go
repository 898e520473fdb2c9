package page

import (
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
)

type AdminView struct {
	Identity
	BackLink string
}

// AdminController drives the admin page. Only admins pass its guard.
type AdminController struct {
	protectedPage
}

func NewAdminController(store *session.Store, g *guard.Guard, nav ports.Navigator, log zerolog.Logger) *AdminController {
	c := &AdminController{}
	c.setup(store, g, nav, guard.PageAdmin, guard.PathAdmin, log)
	return c
}

// Mount runs the guard and reports whether the page may render.
func (c *AdminController) Mount() bool { return c.mount() }

func (c *AdminController) Unmount() { c.unmount() }

// Logout ends the session and navigates to the login page, replacing history.
func (c *AdminController) Logout() { c.logout() }

func (c *AdminController) View() AdminView {
	return AdminView{Identity: c.currentIdentity(), BackLink: guard.PathDashboard}
}
