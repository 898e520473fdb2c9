// Command portal serves the login, dashboard and admin pages on a local
// address. Without AUTH_API_URL it runs against the in-process demo backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api"
	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/api/shell"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/page"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
	"github.com/99minutos/auth-portal/internal/infrastructure/expiry"
	"github.com/99minutos/auth-portal/internal/infrastructure/httpapi"
	"github.com/99minutos/auth-portal/internal/infrastructure/mockapi"
	"github.com/99minutos/auth-portal/internal/pkg/config"
	"github.com/99minutos/auth-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// backend is what both the HTTP client and the demo mock provide.
type backend interface {
	expiry.TokenAuthAPI
	ports.ProductAPI
	session.Observer
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.Production(),
		App:    "auth-portal",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("portal stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var store *session.Store
	unauthorized := func() {
		metrics.SessionExpiredTotal.WithLabelValues("unauthorized").Inc()
		store.MarkExpired(cfg.Session.ExpiredMessage)
	}

	var (
		be       backend
		mode     = "api"
		demoHint string
	)
	if cfg.DemoMode() {
		mock, err := mockapi.New(mockapi.Config{
			Secret:   cfg.Mock.Secret,
			TokenTTL: cfg.Mock.TokenTTL,
			Latency:  cfg.Mock.Latency,
		}, mockapi.DemoAccounts, mockapi.DemoProducts)
		if err != nil {
			return err
		}
		mock.OnUnauthorized(unauthorized)
		be, mode, demoHint = mock, "demo", mockapi.DemoHint(mockapi.DemoAccounts)
		log.Warn().Msg("AUTH_API_URL not set, using the demo backend")
	} else {
		client := httpapi.New(httpapi.Config{
			BaseURL: cfg.API.URL,
			Timeout: cfg.API.Timeout,
			Retries: cfg.API.Retries,
		}, logger.For("httpapi"))
		client.OnUnauthorized(unauthorized)
		be = client
	}

	watcher := expiry.NewWatcher(be, cfg.Session.ExpiredMessage, logger.For("expiry"))
	store = session.NewStore(watcher, logger.For("session"))
	watcher.OnExpire(store.MarkExpired)
	store.Subscribe(watcher)
	store.Subscribe(be)
	store.Subscribe(session.ObserverFunc(func(s domain.Session) {
		log.Debug().Bool("authenticated", s.Authenticated).Uint64("version", s.Version).Msg("session changed")
	}))

	g := guard.New(guard.Options{CarryFrom: cfg.Session.CarryRedirectFrom})
	pageLog := logger.For("page")
	sh := shell.New(ctx, log)
	pages := shell.Pages{
		Login:     page.NewLoginController(store, g, sh, page.LoginOptions{DemoHint: demoHint}, pageLog),
		Dashboard: page.NewDashboardController(store, g, sh, be, pageLog),
		Admin:     page.NewAdminController(store, g, sh, pageLog),
	}
	sh.Bind(pages)

	e, err := api.NewRouter(api.Deps{
		Shell:       sh,
		Pages:       pages,
		Backend:     be,
		Mode:        mode,
		ProductWait: cfg.ProductWait,
		Log:         logger.For("http"),
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("mode", mode).Msg("portal listening")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	store.Logout()
	return e.Shutdown(shutdownCtx)
}
