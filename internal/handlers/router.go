// Package handlers exposes the HTTP surface: the public storefront API,
// the authenticated merchant API, billing webhooks, and internal job push
// routes.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matjar-app/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 60 * time.Second
)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	storefront RouteRegistrar
	merchant   RouteRegistrar
	webhooks   RouteRegistrar
	internal   RouteRegistrar

	merchantMiddlewares []func(http.Handler) http.Handler
	internalMiddlewares []func(http.Handler) http.Handler
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

// WithMiddlewares prepends shared middleware to the stack.
func WithMiddlewares(mws ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) { cfg.middlewares = append(cfg.middlewares, mws...) }
}

// WithHealth overrides the health handlers.
func WithHealth(health *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = health }
}

// WithStorefrontRoutes mounts the public storefront group.
func WithStorefrontRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.storefront = registrar }
}

// WithMerchantRoutes mounts the authenticated merchant group.
func WithMerchantRoutes(registrar RouteRegistrar, mws ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.merchant = registrar
		cfg.merchantMiddlewares = mws
	}
}

// WithWebhookRoutes mounts the webhook group.
func WithWebhookRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.webhooks = registrar }
}

// WithInternalRoutes mounts the internal push group.
func WithInternalRoutes(registrar RouteRegistrar, mws ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.internal = registrar
		cfg.internalMiddlewares = mws
	}
}

// NewRouter constructs the chi router with the shared middleware stack and
// route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
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

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar, groupMW []func(http.Handler) http.Handler) {
			api.Route(path, func(group chi.Router) {
				for _, mw := range groupMW {
					if mw != nil {
						group.Use(mw)
					}
				}
				if registrar != nil {
					registrar(group)
					return
				}
				group.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
					httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", "route group not wired", http.StatusNotImplemented))
				})
			})
		}

		mount("/storefronts", cfg.storefront, nil)
		mount("/me", cfg.merchant, cfg.merchantMiddlewares)
		mount("/webhooks", cfg.webhooks, nil)
		mount("/internal", cfg.internal, cfg.internalMiddlewares)
	})

	return r
}
