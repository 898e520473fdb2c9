package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessHandler handles GET /health/ready. It reports the backend mode and
// whether the backend answers.
type ReadinessHandler struct {
	mode    string
	backend Pinger
	timeout time.Duration
}

func NewReadinessHandler(mode string, backend Pinger) *ReadinessHandler {
	return &ReadinessHandler{mode: mode, backend: backend, timeout: 3 * time.Second}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Mode         string                      `json:"mode"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := readinessResponse{
		Status:       "ok",
		Mode:         h.mode,
		Dependencies: map[string]dependencyStatus{"backend": {Status: "ok"}},
	}
	code := http.StatusOK
	if err := h.backend.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Dependencies["backend"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
