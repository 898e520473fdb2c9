package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/handler"
	"github.com/99minutos/auth-portal/internal/api/middleware"
	"github.com/99minutos/auth-portal/internal/api/shell"
)

// Deps is everything the router needs to serve the portal.
type Deps struct {
	Shell       *shell.Shell
	Pages       shell.Pages
	Backend     handler.Pinger
	Mode        string
	ProductWait time.Duration
	Log         zerolog.Logger
	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer, which /metrics exposes.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := handler.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLog(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: d.registerer(),
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
		},
	}))

	// --- Pages ---
	pages := handler.NewPageHandler(d.Shell, d.Pages, d.ProductWait, d.Log)
	noStore := middleware.NoStore()
	e.GET("/", pages.Root, noStore)
	e.GET("/login", pages.LoginPage, noStore)
	e.POST("/login", pages.Login, noStore)
	e.GET("/dashboard", pages.Dashboard, noStore)
	e.GET("/admin", pages.Admin, noStore)
	e.POST("/logout", pages.Logout, noStore)

	// --- Probes and metrics ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Mode, d.Backend).Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e, nil
}

func (d Deps) registerer() prometheus.Registerer {
	if d.Registerer != nil {
		return d.Registerer
	}
	return prometheus.DefaultRegisterer
}
