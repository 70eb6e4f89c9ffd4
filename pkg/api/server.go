package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/catalog"
	"github.com/shelfhub/shelfhub/pkg/config"
	"github.com/shelfhub/shelfhub/pkg/httputil"
	authmw "github.com/shelfhub/shelfhub/pkg/middleware"
	"github.com/shelfhub/shelfhub/pkg/observability"
	"github.com/shelfhub/shelfhub/pkg/rbac"
	"github.com/shelfhub/shelfhub/pkg/social"
)

// Deps bundles the shared infrastructure the server is built on. Redis and
// Metrics are optional.
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Server is the API server. It owns the router and the domain stores.
type Server struct {
	cfg    *config.Config
	logger *observability.Logger
	router *mux.Router

	users   *auth.Store
	catalog *catalog.Store
	social  *social.Store
	rbac    *rbac.Store

	httpServer *http.Server
}

// NewServer wires stores, middleware and routes
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  deps.Logger,
		router:  mux.NewRouter(),
		users:   auth.NewStore(deps.DB),
		catalog: catalog.NewStore(deps.DB),
		social:  social.NewStore(deps.DB),
		rbac:    rbac.NewStore(deps.DB),
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	checker := rbac.NewChecker(s.rbac, cfg.Redis.CacheTTL, deps.Metrics)
	pm := rbac.NewPermissionMiddleware(checker)

	var postCache *social.PostCache
	if deps.Redis != nil {
		postCache = social.NewPostCache(s.social, deps.Redis, cfg.Redis.CacheTTL)
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	s.router.Use(httputil.CORSMiddleware)
	if deps.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(deps.Metrics))
	}

	// Everything outside /auth/register and /auth/login requires a bearer
	// token. The catalog adds permission gating per route; the social layer
	// is open to any authenticated member.
	protected := s.router.PathPrefix("/").Subrouter()
	protected.Use(authmw.NewAuthMiddleware(tokens, s.users, false).Handler)

	auth.NewHandlers(s.users, tokens).RegisterRoutes(s.router, protected)
	catalog.NewHandlers(s.catalog, s.users).RegisterRoutes(protected, pm)
	social.NewHandlers(s.social, postCache).RegisterRoutes(protected)

	return s
}

// Router exposes the underlying router, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start runs the HTTP server until the context is cancelled, then shuts it
// down within the configured grace period.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("api server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// HealthServer serves liveness, readiness and metrics on a separate port so
// probes are never blocked by application traffic.
type HealthServer struct {
	cfg    *config.Config
	logger *observability.Logger
	mux    *http.ServeMux
}

// NewHealthServer builds the probe server
func NewHealthServer(cfg *config.Config, deps Deps, registry *prometheus.Registry) *HealthServer {
	m := http.NewServeMux()
	checker := observability.NewHealthChecker(deps.DB, deps.Redis)
	m.HandleFunc("/healthz", checker.Liveness)
	m.HandleFunc("/readyz", checker.Readiness)
	if cfg.Observability.MetricsEnabled && registry != nil {
		observability.RegisterMetricsEndpoint(m, registry)
	}
	return &HealthServer{cfg: cfg, logger: deps.Logger, mux: m}
}

// Start runs the health server until the context is cancelled
func (h *HealthServer) Start(ctx context.Context) error {
	addr := h.cfg.Server.Host + ":" + h.cfg.Server.HealthPort
	srv := &http.Server{
		Addr:        addr,
		Handler:     h.mux,
		ReadTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.WithField("addr", addr).Info("health server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
