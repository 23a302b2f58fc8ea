package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/usuarios-server/internal/api/http/handler"
	"github.com/dtroode/usuarios-server/internal/api/http/middleware"
	"github.com/dtroode/usuarios-server/internal/logger"
	"github.com/dtroode/usuarios-server/internal/metrics"
	"github.com/dtroode/usuarios-server/internal/model"
)

// AuthService covers registration, login and token verification.
type AuthService interface {
	handler.AuthService
	middleware.Authenticator
}

// Config holds routing policy.
type Config struct {
	// RequireAuthForListing guards GET /api/usuarios with the bearer check.
	RequireAuthForListing bool
	RequestTimeout        time.Duration
	Version               string
}

// Router builds the HTTP route table of the service.
type Router struct {
	cfg            Config
	authService    AuthService
	accountService handler.AccountService
	db             handler.Pinger
	contextManager model.ContextManager
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	responder      *handler.Responder
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	cfg Config,
	authService AuthService,
	accountService handler.AccountService,
	db handler.Pinger,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	responder *handler.Responder,
	logger *logger.Logger,
) *Router {
	return &Router{
		cfg:            cfg,
		authService:    authService,
		accountService: accountService,
		db:             db,
		contextManager: contextManager,
		metrics:        metrics,
		gatherer:       gatherer,
		responder:      responder,
		logger:         logger,
	}
}

// Register wires middleware and handlers and returns the root handler.
func (r *Router) Register() http.Handler {
	mux := chi.NewRouter()

	mux.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.NewLogging(r.logger).Handle,
		middleware.NewMetrics(r.metrics).Handle,
		middleware.NewRecovery(r.responder, r.logger).Handle,
		middleware.Timeout(r.cfg.RequestTimeout),
	)

	mux.NotFound(r.notFound)
	mux.MethodNotAllowed(r.methodNotAllowed)

	health := handler.NewHealth(r.db, r.cfg.Version, r.responder)
	mux.Get("/health", health.Check)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api/usuarios", r.registerAccountRoutes)

	return mux
}

func (r *Router) registerAccountRoutes(api chi.Router) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.responder, r.logger)
	accountHandler := handler.NewAccount(r.accountService, r.responder, r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.responder, r.logger)

	api.Post("/", authHandler.Register)
	api.Post("/cadastro", authHandler.Register)
	api.Post("/login", authHandler.Login)

	if r.cfg.RequireAuthForListing {
		api.With(authenticate.Handle).Get("/", accountHandler.List)
	} else {
		api.Get("/", accountHandler.List)
	}

	api.Group(func(protected chi.Router) {
		protected.Use(authenticate.Handle)

		protected.Get("/perfil", authHandler.Profile)
		protected.Get("/{id}", accountHandler.Get)
		protected.Put("/{id}", accountHandler.Update)
		protected.Delete("/{id}", accountHandler.Delete)
		protected.Patch("/{id}/restore", accountHandler.Restore)
	})
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	r.responder.Fail(w, http.StatusNotFound, fmt.Sprintf("route %s %s not found", req.Method, req.URL.Path))
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	r.responder.Fail(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path))
}
