package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/shell"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/page"
	"github.com/99minutos/auth-portal/internal/core/session"
)

type stubAuthAPI struct {
	users map[string]domain.User
}

func (s *stubAuthAPI) Login(_ context.Context, email, _ string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: "帳號或密碼錯誤"}
	}
	return &u, nil
}

type stubProductAPI struct {
	err error
}

func (s stubProductAPI) GetProducts(context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Product{{ID: 1, Name: "Product A", Price: 100, Description: "Desc A"}}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testPortal struct {
	e     *echo.Echo
	store *session.Store
}

func newTestPortal(t *testing.T, products stubProductAPI, backend stubPinger) *testPortal {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	store := session.NewStore(&stubAuthAPI{users: map[string]domain.User{
		"admin@example.com": {Username: "Admin", Role: domain.RoleAdmin},
		"user@example.com":  {Username: "TestUser", Role: domain.RoleUser},
	}}, log)
	g := guard.New(guard.Options{CarryFrom: true})

	sh := shell.New(ctx, log)
	pages := shell.Pages{
		Login:     page.NewLoginController(store, g, sh, page.LoginOptions{DemoHint: "測試帳號：user@example.com / password123"}, log),
		Dashboard: page.NewDashboardController(store, g, sh, products, log),
		Admin:     page.NewAdminController(store, g, sh, log),
	}
	sh.Bind(pages)

	e, err := NewRouter(Deps{
		Shell:       sh,
		Pages:       pages,
		Backend:     backend,
		Mode:        "demo",
		ProductWait: 2 * time.Second,
		Log:         log,
		Registerer:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &testPortal{e: e, store: store}
}

func (p *testPortal) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, req)
	return rec
}

func (p *testPortal) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, req)
	return rec
}

func (p *testPortal) login(t *testing.T, email string) {
	t.Helper()
	p.get("/login")
	rec := p.post("/login", url.Values{"email": {email}, "password": {"password123"}})
	expectRedirect(t, rec, "/dashboard")
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != to {
		t.Fatalf("expected redirect to %s, got %s", to, loc)
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, code int, parts ...string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("expected body to contain %q:\n%s", p, body)
		}
	}
}

func TestRouter_SignedOutVisitorsLandOnLogin(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})

	expectRedirect(t, p.get("/"), "/login")
	expectRedirect(t, p.get("/dashboard"), "/login")
	expectRedirect(t, p.get("/admin"), "/login")

	rec := p.get("/login")
	expectBody(t, rec, http.StatusOK, "歡迎回來", "登入", "測試帳號：")
	if cc := rec.Header().Get(echo.HeaderCacheControl); cc != "no-store" {
		t.Fatalf("expected no-store on pages, got %q", cc)
	}
}

func TestRouter_LoginValidationKeepsEmail(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})

	rec := p.post("/login", url.Values{"email": {"not-an-email"}, "password": {"short"}})

	expectBody(t, rec, http.StatusUnprocessableEntity,
		"請輸入有效的 Email 格式", "密碼必須至少 8 個字元", `value="not-an-email"`)
	if strings.Contains(rec.Body.String(), `value="short"`) {
		t.Fatalf("password must not be written back into the form")
	}
}

func TestRouter_LoginRejectedShowsBanner(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})

	rec := p.post("/login", url.Values{"email": {"nobody@example.com"}, "password": {"password123"}})

	expectBody(t, rec, http.StatusUnauthorized, "帳號或密碼錯誤", `value="nobody@example.com"`)
	if strings.Contains(rec.Body.String(), `value="password123"`) {
		t.Fatalf("password must not be written back into the form")
	}
	if p.store.Snapshot().Authenticated {
		t.Fatalf("store must stay signed out")
	}
}

func TestRouter_LoginOversizedFormRejected(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})

	rec := p.post("/login", url.Values{"email": {strings.Repeat("a", 400) + "@example.com"}, "password": {"password123"}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_DashboardAfterLogin(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "user@example.com")

	rec := p.get("/dashboard")

	expectBody(t, rec, http.StatusOK, "Welcome, TestUser 👋", "一般用戶", "商品列表", "Product A", "$100.00")
	if strings.Contains(rec.Body.String(), "🛠️ 管理後台") {
		t.Fatalf("regular users must not see the admin link")
	}
	expectRedirect(t, p.get("/login"), "/dashboard")
}

func TestRouter_DashboardProductError(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{err: &domain.APIError{Status: 500, Message: "伺服器錯誤"}}, stubPinger{})
	p.login(t, "user@example.com")

	expectBody(t, p.get("/dashboard"), http.StatusOK, "伺服器錯誤")
}

func TestRouter_DashboardProductErrorFallback(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{err: errors.New("boom")}, stubPinger{})
	p.login(t, "user@example.com")

	expectBody(t, p.get("/dashboard"), http.StatusOK, page.MsgProductsFailed)
}

func TestRouter_AdminPage(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "admin@example.com")

	expectBody(t, p.get("/dashboard"), http.StatusOK, "🛠️ 管理後台", "管理員")
	expectBody(t, p.get("/admin"), http.StatusOK, "管理員專屬頁面", "← 返回", `href="/dashboard"`)
}

func TestRouter_AdminPageRegularUserBounced(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "user@example.com")

	expectRedirect(t, p.get("/admin"), "/dashboard")
}

func TestRouter_Logout(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "user@example.com")
	p.get("/dashboard")

	expectRedirect(t, p.post("/logout", nil), "/login")

	if p.store.Snapshot().Authenticated {
		t.Fatalf("expected signed out")
	}
	expectRedirect(t, p.get("/dashboard"), "/login")
}

func TestRouter_ExpiredSessionNoticeShownOnce(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "user@example.com")
	p.get("/dashboard")

	p.store.MarkExpired("登入已過期，請重新登入")

	expectRedirect(t, p.get("/dashboard"), "/login")
	expectBody(t, p.get("/login"), http.StatusOK, "登入已過期，請重新登入")
	if strings.Contains(p.get("/login").Body.String(), "登入已過期") {
		t.Fatalf("notice must only be shown once")
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})

	expectBody(t, p.get("/nope"), http.StatusNotFound, "404")
}

func TestRouter_HealthProbes(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	expectBody(t, p.get("/health"), http.StatusOK, `"status":"ok"`)
	expectBody(t, p.get("/health/ready"), http.StatusOK, `"mode":"demo"`)

	down := newTestPortal(t, stubProductAPI{}, stubPinger{err: errors.New("connection refused")})
	expectBody(t, down.get("/health/ready"), http.StatusServiceUnavailable, "connection refused")
}

func TestRouter_Metrics(t *testing.T) {
	p := newTestPortal(t, stubProductAPI{}, stubPinger{})
	p.login(t, "user@example.com")

	expectBody(t, p.get("/metrics"), http.StatusOK, "portal_login_attempts_total")
}
