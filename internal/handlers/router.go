package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orderdesk/api/internal/platform/httpx"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 60 * time.Second
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

// Option customises the router configuration before construction.
type Option func(*routerConfig)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	groups      map[string]RouteRegistrar
}

// resourceGroups fixes the API surface: every group is always mounted, and an
// unwired one answers 501 so a missing registrar is visible instead of a 404.
var resourceGroups = []struct {
	name string
	path string
}{
	{name: "orders", path: "/orders"},
	{name: "items", path: "/items"},
	{name: "dashboard", path: "/dashboard"},
}

// NewRouter assembles the HTTP surface: health probes at the root, resource
// groups under the API prefix, and the shared middleware chain.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(requestTimeout),
		},
		groups: make(map[string]RouteRegistrar),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(errorHandler("route_not_found", http.StatusNotFound, func(req *http.Request) string {
		return fmt.Sprintf("no route for %s", req.URL.Path)
	}))
	r.MethodNotAllowed(errorHandler("method_not_allowed", http.StatusMethodNotAllowed, func(req *http.Request) string {
		return fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path)
	}))

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(apiPrefix, func(api chi.Router) {
		for _, group := range resourceGroups {
			registrar := cfg.groups[group.name]
			api.Route(group.path, func(sub chi.Router) {
				if registrar == nil {
					stub := errorHandler("not_implemented", http.StatusNotImplemented, func(*http.Request) string {
						return fmt.Sprintf("%s endpoints are not wired", group.name)
					})
					sub.HandleFunc("/", stub)
					sub.HandleFunc("/*", stub)
					return
				}
				registrar(sub)
			})
		}
	})

	return r
}

func errorHandler(code string, status int, message func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(code, message(req), status))
	}
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers behind /healthz and /readyz.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithOrderRoutes wires the order endpoints, including nested feedback routes.
func WithOrderRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.groups["orders"] = reg
	}
}

// WithItemRoutes wires the catalog item endpoints.
func WithItemRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.groups["items"] = reg
	}
}

// WithDashboardRoutes wires the dashboard endpoints.
func WithDashboardRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.groups["dashboard"] = reg
	}
}
