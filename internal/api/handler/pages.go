package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/shell"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/page"
)

// PageHandler maps browser requests onto the shell. A GET is a user
// navigation; whenever the shell ends up somewhere else than the requested
// path the browser is sent there with 303.
type PageHandler struct {
	shell *shell.Shell
	pages shell.Pages
	// productWait bounds how long a dashboard response waits for the product
	// list before rendering the loading state.
	productWait time.Duration
	log         zerolog.Logger
}

func NewPageHandler(sh *shell.Shell, pages shell.Pages, productWait time.Duration, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		shell:       sh,
		pages:       pages,
		productWait: productWait,
		log:         log.With().Str("component", "pages").Logger(),
	}
}

type loginForm struct {
	Email    string `form:"email" validate:"max=320"`
	Password string `form:"password" validate:"max=1024"`
}

// loginData carries the email back into the form. The password is never
// written into a response.
type loginData struct {
	View  page.LoginView
	Email string
}

type dashboardData struct {
	page.DashboardView
	AdminLinkLabel string
	LoadingLabel   string
}

type adminData struct {
	page.AdminView
	Title     string
	BackLabel string
}

// Root sends the visitor to the dashboard, or wherever its guard says.
func (h *PageHandler) Root(c echo.Context) error {
	return h.redirect(c, h.shell.Visit(guard.PathDashboard))
}

func (h *PageHandler) LoginPage(c echo.Context) error {
	if loc := h.shell.Visit(guard.PathLogin); loc.Path != guard.PathLogin {
		return h.redirect(c, loc)
	}
	return h.renderLogin(c, http.StatusOK, loginForm{})
}

// Login handles the login form post. The email is echoed back on every
// re-render.
func (h *PageHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if loc := h.shell.Visit(guard.PathLogin); loc.Path != guard.PathLogin {
		return h.redirect(c, loc)
	}

	ctx := c.Request().Context()
	task, err := h.pages.Login.Submit(ctx, form.Email, form.Password)
	if err != nil {
		return h.renderLogin(c, StatusOf(err), form)
	}
	if err := task.Wait(ctx); err != nil {
		return h.renderLogin(c, StatusOf(err), form)
	}
	return h.redirect(c, h.shell.Location())
}

func (h *PageHandler) Dashboard(c echo.Context) error {
	if loc := h.shell.Visit(guard.PathDashboard); loc.Path != guard.PathDashboard {
		return h.redirect(c, loc)
	}
	if task := h.shell.Products(); task != nil && h.productWait > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.productWait)
		_ = task.Wait(ctx)
		cancel()
	}
	// A rejected product load may have expired the session meanwhile.
	if loc := h.shell.Location(); loc.Path != guard.PathDashboard {
		return h.redirect(c, loc)
	}
	return c.Render(http.StatusOK, TemplateDashboard, dashboardData{
		DashboardView:  h.pages.Dashboard.View(),
		AdminLinkLabel: page.LabelAdminLink,
		LoadingLabel:   page.MsgLoadingProducts,
	})
}

func (h *PageHandler) Admin(c echo.Context) error {
	if loc := h.shell.Visit(guard.PathAdmin); loc.Path != guard.PathAdmin {
		return h.redirect(c, loc)
	}
	return c.Render(http.StatusOK, TemplateAdmin, adminData{
		AdminView: h.pages.Admin.View(),
		Title:     page.LabelAdminLink,
		BackLabel: page.LabelBack,
	})
}

func (h *PageHandler) Logout(c echo.Context) error {
	h.shell.Logout()
	return h.redirect(c, h.shell.Location())
}

func (h *PageHandler) renderLogin(c echo.Context, status int, form loginForm) error {
	return c.Render(status, TemplateLogin, loginData{
		View:  h.pages.Login.ConsumeView(),
		Email: form.Email,
	})
}

func (h *PageHandler) redirect(c echo.Context, loc shell.Entry) error {
	target := loc.Path
	if target == "" {
		target = guard.PathLogin
	}
	h.log.Debug().Str("from", c.Request().URL.Path).Str("to", target).Msg("redirect")
	return c.Redirect(http.StatusSeeOther, target)
}
