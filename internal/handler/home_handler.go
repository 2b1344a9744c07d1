package handler

import (
	"context"
	"net/http"
	"time"

	"notes-api/pkg/response"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error { return f(ctx) }

type HomeHandler struct {
	checks map[string]HealthChecker
}

func NewHomeHandler(checks map[string]HealthChecker) *HomeHandler {
	return &HomeHandler{checks: checks}
}

func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	response.Success(w, "Welcome to Notes API", nil)
}

// Health pings every dependency and answers 503 if any of them fails.
func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}

	if !healthy {
		response.JSON(w, http.StatusServiceUnavailable, "Service unavailable", status)
		return
	}
	response.Success(w, "OK", status)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
