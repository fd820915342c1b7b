package handlers

import (
	"context"
	"net/http"
	"time"

	domain "github.com/orderdesk/api/internal/domain"
)

const readyzProbeTimeout = 5 * time.Second

// HealthProbe checks one downstream dependency and returns an error when it
// is unreachable.
type HealthProbe func(ctx context.Context) error

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	clock       func() time.Time
	startedAt   time.Time
	version     string
	environment string
	probes      map[string]HealthProbe
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthBuildInfo records version metadata reported by /healthz.
func WithHealthBuildInfo(version, environment string, startedAt time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
		h.environment = environment
		if !startedAt.IsZero() {
			h.startedAt = startedAt
		}
	}
}

// WithHealthProbe registers a named dependency probe evaluated by /readyz.
func WithHealthProbe(name string, probe HealthProbe) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || probe == nil {
			return
		}
		h.probes[name] = probe
	}
}

// NewHealthHandlers constructs health handlers with the provided options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:     time.Now,
		startedAt: time.Now().UTC(),
		probes:    map[string]HealthProbe{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Healthz reports process liveness without touching downstream dependencies.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.version != "" {
		payload["version"] = h.version
	}
	if h.environment != "" {
		payload["environment"] = h.environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz evaluates every registered dependency probe and reports degraded
// with a 503 when any of them fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzProbeTimeout)
	defer cancel()

	status := domain.HealthStatusOK
	checks := make(map[string]healthCheckPayload, len(h.probes))

	for name, probe := range h.probes {
		started := h.clock().UTC()
		err := probe(ctx)
		check := healthCheckPayload{
			Status:    domain.HealthStatusOK,
			Latency:   h.clock().UTC().Sub(started).String(),
			CheckedAt: started.Format(time.RFC3339),
		}
		if err != nil {
			status = domain.HealthStatusDegraded
			check.Status = domain.HealthStatusDegraded
			check.Error = err.Error()
		}
		checks[name] = check
	}

	code := http.StatusOK
	if status != domain.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, code, readyzResponse{
		Status:    status,
		Timestamp: h.clock().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

type readyzResponse struct {
	Status    string                        `json:"status"`
	Timestamp string                        `json:"timestamp"`
	Checks    map[string]healthCheckPayload `json:"checks,omitempty"`
}

type healthCheckPayload struct {
	Status    string `json:"status"`
	Latency   string `json:"latency"`
	Error     string `json:"error,omitempty"`
	CheckedAt string `json:"checked_at"`
}
