// Package handlers serves the engine's operational endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nyx/internal/observability"
)

// Pinger is a dependency whose liveness gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handlers serves the health and readiness endpoints. Timeout bounds one
// readiness pass and defaults to two seconds.
type Handlers struct {
	// Checks are probed by Ready, keyed by component name.
	Checks  map[string]Pinger
	Timeout time.Duration
}

var healthResponse = []byte(`{"status":"ok","service":"nyx"}`)

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		observability.GlobalLogger.Warn("write error", slog.String("error", err.Error()))
	}
}

// Health reports that the process is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse)
}

// Ready probes every check and answers 503 when any of them fails.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check.Ping(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			observability.GlobalLogger.WarnContext(ctx, "readiness check failed",
				slog.String("component", name), slog.String("error", err.Error()))
			continue
		}
		results[name] = "ok"
	}

	// maps of strings always marshal
	body, _ := json.Marshal(map[string]interface{}{"ready": status == http.StatusOK, "checks": results})
	writeJSON(w, status, body)
}
