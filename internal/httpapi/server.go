// Package httpapi implements the Docshelf HTTP API.
//
// Security:
//   - API key authentication on every tenant request (constant-time comparison)
//   - Tenant resolution from the X-Tenant header or the Host subdomain; every
//     handler operates on a context bound to the resolved tenant
//   - Admin endpoints live under /admin behind a separate token — the only
//     routes that reach the unscoped store accessor
//   - Per-tenant rate limiting via token bucket
//   - TLS expected via reverse proxy (not handled here)
package httpapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jkaninda/okapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/docshelfhq/docshelf/internal/domain"
	"github.com/docshelfhq/docshelf/internal/events"
	"github.com/docshelfhq/docshelf/internal/observability"
	"github.com/docshelfhq/docshelf/internal/ratelimit"
	"github.com/docshelfhq/docshelf/internal/storage"
	"github.com/docshelfhq/docshelf/internal/tenant"
	"github.com/docshelfhq/docshelf/internal/workspace"
)

const defaultMaxRequestSize = 1 << 20 // 1 MB

// ctxTenantKey is the okapi context key carrying the resolved tenant ID.
const ctxTenantKey = "tenantID"

// ErrorBody is the standard error response used in OpenAPI documentation.
type ErrorBody struct {
	Error string `json:"error"`
}

// Config configures the HTTP API server.
type Config struct {
	ListenAddr string // e.g., ":8080"
	EnableDocs bool
	APIKey     string // Shared API key for tenant endpoints.
	AdminToken string // Separate token for /admin endpoints.

	// Workspace holds the per-tenant artifact tree; the admin purge removes a
	// tenant's directory along with its rows. May be nil in tests.
	Workspace *workspace.Workspace

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	HealthChecker   *observability.HealthChecker    // Health checker for /ready endpoint.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Server is the Docshelf HTTP API server.
type Server struct {
	config  Config
	store   storage.Store
	limiter *ratelimit.Limiter
	hub     *events.Hub
	logger  *slog.Logger
	server  *http.Server
	okapi   *okapi.Okapi
}

// NewServer creates the HTTP API server. limiter and hub may be nil.
func NewServer(cfg Config, store storage.Store, rl *ratelimit.Limiter, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:  cfg,
		store:   store,
		limiter: rl,
		hub:     hub,
		logger:  logger,
		okapi:   okapi.New(okapi.WithMaxMultipartMemory(defaultMaxRequestSize)),
	}
}

// WithOpenAPIDocs enables the OpenAPI documentation endpoint.
func (s *Server) WithOpenAPIDocs() *Server {
	s.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "Docshelf",
			Version: "v0.1.0",
		},
	)
	return s
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	var mw []okapi.Middleware
	if s.config.Metrics != nil || s.config.Tracer != nil {
		mw = append(mw, observability.MetricsMiddleware(s.config.Metrics, s.config.Tracer))
	}

	// Authenticated, tenant-scoped /v1 group.
	v1 := s.okapi.Group("/v1", append(mw, s.authenticate, s.resolveTenant)...)
	s.registerTagRoutes(v1)
	s.registerDocumentRoutes(v1)
	s.registerCorrespondentRoutes(v1)
	s.registerDocumentTypeRoutes(v1)
	s.registerSavedViewRoutes(v1)

	v1.Get("/healthz", s.handleHealth,
		okapi.DocSummary("Authenticated health check"),
		okapi.DocTags("Health"),
		okapi.DocResponse(HealthResponse{}),
	)

	// Event stream (WebSocket upgrade; authenticates and resolves the
	// tenant itself since the upgrade bypasses the okapi middleware chain).
	s.okapi.HandleStd("GET", "/v1/events", s.handleEvents)

	// Admin group: tenant registry and unscoped reporting.
	admin := s.okapi.Group("/admin", append(mw, s.authenticateAdmin)...)
	s.registerAdminRoutes(admin)

	// Observability endpoints (unauthenticated).
	s.okapi.Get("/healthz", s.handleLiveness)
	s.okapi.Get("/readyz", s.handleReadiness)

	if s.config.MetricsRegistry != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.okapi.HandleStd("GET", path, promhttp.HandlerFor(s.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if s.config.EnableDocs {
		s.WithOpenAPIDocs()
	}

	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("http api starting", slog.String("addr", s.config.ListenAddr))
	return s.okapi.StartServer(s.server)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("http api stopping")
	return s.okapi.Shutdown(s.server)
}

// --- Authentication & tenant resolution ---

// authenticate validates the shared API key.
func (s *Server) authenticate(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		if s.config.APIKey == "" {
			return c.AbortUnauthorized("api key not configured")
		}
		authHeader := c.Header("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.AbortUnauthorized("missing or invalid Authorization header")
		}
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.config.APIKey)) != 1 {
			return c.AbortUnauthorized("invalid API key")
		}
		return next(c)
	}
}

// authenticateAdmin validates the admin token. Admin routes never resolve a
// tenant: they are the explicit unscoped surface.
func (s *Server) authenticateAdmin(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		if s.config.AdminToken == "" {
			return c.AbortUnauthorized("admin token not configured")
		}
		authHeader := c.Header("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.AbortUnauthorized("missing or invalid Authorization header")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AdminToken)) != 1 {
			return c.AbortUnauthorized("invalid admin token")
		}
		return next(c)
	}
}

// resolveTenant maps the request to a tenant and rejects requests for
// unknown or deactivated tenants. The tenant slug comes from the X-Tenant
// header, or failing that from the first label of the Host.
func (s *Server) resolveTenant(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		slug := tenantSlug(c.Request())
		if slug == "" {
			return c.AbortBadRequest("tenant not specified (set the X-Tenant header)")
		}

		tn, err := s.store.Tenants().GetBySlug(c.Context(), slug)
		if err != nil {
			if isNotFound(err) {
				return c.JSON(http.StatusNotFound, okapi.M{"error": "unknown tenant"})
			}
			s.logger.Error("tenant resolution failed",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
			return c.AbortInternalServerError("tenant resolution failed")
		}
		if !tn.Active {
			return c.JSON(http.StatusForbidden, okapi.M{"error": domain.ErrTenantInactive.Error()})
		}

		if s.limiter != nil {
			if err := s.limiter.Allow(tn.ID); err != nil {
				return c.AbortTooManyRequests("rate limit exceeded")
			}
		}

		c.Set(ctxTenantKey, tn.ID.String())
		return next(c)
	}
}

// tenantSlug extracts the tenant slug from a request.
func tenantSlug(r *http.Request) string {
	if slug := r.Header.Get("X-Tenant"); slug != "" {
		return slug
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	// Subdomain routing: acme.docshelf.example → "acme". A bare host has no
	// tenant label.
	parts := strings.Split(host, ".")
	if len(parts) >= 3 {
		return parts[0]
	}
	return ""
}

// scopedContext returns the request context bound to the tenant the
// middleware resolved. A request that somehow reaches a handler without a
// resolved tenant yields an unbound context, and the storage layer fails
// closed.
func scopedContext(c *okapi.Context) context.Context {
	id, err := uuid.Parse(c.GetString(ctxTenantKey))
	if err != nil || id == uuid.Nil {
		return c.Context()
	}
	return tenant.WithTenant(c.Context(), id)
}

// resolvedTenant returns the tenant the middleware bound for this request.
func resolvedTenant(c *okapi.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(ctxTenantKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// publish emits an event for the request's tenant, if the hub is wired.
func (s *Server) publish(c *okapi.Context, eventType string, entityID uuid.UUID, name string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(resolvedTenant(c), events.Event{Type: eventType, EntityID: entityID, Name: name})
}

// --- Health handlers ---

// HealthResponse is the JSON response for health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleLiveness is the Kubernetes liveness probe
func (s *Server) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness checks all registered dependencies and returns 200 or 503.
func (s *Server) handleReadiness(c *okapi.Context) error {
	if s.config.HealthChecker == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	status := s.config.HealthChecker.CheckReady(c.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
