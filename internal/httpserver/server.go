package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/paylinkhq/server/internal/config"
	apierrors "github.com/paylinkhq/server/internal/errors"
	"github.com/paylinkhq/server/internal/invoices"
	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/metrics"
	"github.com/paylinkhq/server/internal/payment"
	"github.com/paylinkhq/server/internal/ratelimit"
	"github.com/paylinkhq/server/pkg/solanapay"
)

var (
	serverStartTime = time.Now()
)

// HealthChecker reports upstream reachability. *solanapay.RPCChain
// satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
	BreakerState() string
}

// Deps are the collaborators the routes need.
type Deps struct {
	Pipeline *payment.Pipeline
	Invoices invoices.Repository
	Chain    HealthChecker
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Server wires handlers, middleware, and dependencies.
type Server struct {
	httpServer *http.Server
}

type handlers struct {
	cfg      *config.Config
	pipeline *payment.Pipeline
	invoices invoices.Repository
	chain    HealthChecker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func newHandlers(cfg *config.Config, deps Deps) handlers {
	repo := deps.Invoices
	if repo == nil {
		repo = invoices.NewDisabledRepository()
	}
	return handlers{
		cfg:      cfg,
		pipeline: deps.Pipeline,
		invoices: repo,
		chain:    deps.Chain,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// New wraps handler in an http.Server using the configured address and
// timeouts.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      handler,
		},
	}
}

// ConfigureRouter attaches the action routes to an existing router.
func ConfigureRouter(router chi.Router, cfg *config.Config, deps Deps) {
	if router == nil {
		return
	}

	h := newHandlers(cfg, deps)

	// Pre-flight requests pass through to the explicit OPTIONS routes so
	// that actionHeaders has the final say on every response.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     actionMethods,
		AllowedHeaders:     actionAllowedHeaders,
		ExposedHeaders:     actionExposedHeaders,
		AllowCredentials:   false,
		OptionsPassthrough: true,
		MaxAge:             300,
	}))
	router.Use(actionHeaders(solanapay.BlockchainID(cfg.Solana.Cluster)))
	router.Use(securityHeadersMiddleware)

	router.Use(logger.Middleware(deps.Logger))
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, apierrors.ErrCodeResourceNotFound, "Route not found")
	})

	prefix := cfg.Server.RoutePrefix

	// Lightweight endpoints with 5s timeout
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/actions.json", h.actionsJSON)
		r.Options("/actions.json", preflight)
		r.Get(prefix+"/health", h.health)
		r.With(adminMetricsAuth(cfg.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	// Action endpoints bound their own chain calls; see handlers.deadline.
	limits := ratelimit.FromConfig(cfg.RateLimit, deps.Metrics)
	router.Group(func(r chi.Router) {
		r.Use(ratelimit.IPLimiter(limits))
		r.Use(ratelimit.AccountLimiter(limits))

		r.Get(prefix+payPath, h.describePay)
		r.Post(prefix+payPath, h.buildPay)
		r.Options(prefix+payPath, preflight)

		r.Get(prefix+invoicePath+"/{invoiceID}", h.describeInvoice)
		r.Post(prefix+invoicePath+"/{invoiceID}", h.buildInvoice)
		r.Options(prefix+invoicePath+"/{invoiceID}", preflight)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
