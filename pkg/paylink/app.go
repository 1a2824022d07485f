package paylink

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/paylinkhq/server/internal/circuitbreaker"
	"github.com/paylinkhq/server/internal/config"
	"github.com/paylinkhq/server/internal/dbpool"
	"github.com/paylinkhq/server/internal/httpserver"
	"github.com/paylinkhq/server/internal/httputil"
	"github.com/paylinkhq/server/internal/invoices"
	"github.com/paylinkhq/server/internal/lifecycle"
	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/metrics"
	"github.com/paylinkhq/server/internal/money"
	"github.com/paylinkhq/server/internal/payment"
	"github.com/paylinkhq/server/internal/rpcutil"
	"github.com/paylinkhq/server/pkg/solanapay"
)

// App wires the action components for embedding or standalone serving.
type App struct {
	Config   *config.Config
	Assets   *money.Registry
	Chain    solanapay.Chain
	Invoices invoices.Repository
	Pipeline *payment.Pipeline

	router           chi.Router
	resourceManager  *lifecycle.Manager
	metricsCollector *metrics.Metrics
	logger           zerolog.Logger
}

// Option configures App construction.
type Option func(*options)

type options struct {
	chain      solanapay.Chain
	invoices   invoices.Repository
	router     chi.Router
	registerer prometheus.Registerer
	logger     *zerolog.Logger
}

// WithChain injects the chain client. Without it the app dials the
// configured RPC endpoint.
func WithChain(chain solanapay.Chain) Option {
	return func(o *options) {
		o.chain = chain
	}
}

// WithInvoices injects an invoice store in place of the configured one.
func WithInvoices(repo invoices.Repository) Option {
	return func(o *options) {
		o.invoices = repo
	}
}

// WithRouter allows callers to provide an existing chi.Router to register routes onto.
func WithRouter(router chi.Router) Option {
	return func(o *options) {
		o.router = router
	}
}

// WithRegisterer sets the Prometheus registerer (default: the global one).
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithLogger sets the process logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// NewApp assembles the action services.
func NewApp(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("paylink: config required")
	}

	optState := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&optState)
	}

	var appLogger zerolog.Logger
	if optState.logger != nil {
		appLogger = *optState.logger
	} else {
		appLogger = logger.New(logger.Config{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Service:     "paylink-server",
			Environment: cfg.Logging.Environment,
		})
	}

	app := &App{
		Config:          cfg,
		resourceManager: lifecycle.NewManager(appLogger),
		logger:          appLogger,
	}

	assets, err := money.NewRegistry(cfg.Solana.Cluster, cfg.Solana.USDCMint)
	if err != nil {
		return nil, fmt.Errorf("asset registry: %w", err)
	}
	app.Assets = assets

	app.metricsCollector = metrics.New(optState.registerer)
	breakers := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	if optState.chain != nil {
		app.Chain = optState.chain
	} else {
		client := rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(cfg.Solana.RPCURL, &jsonrpc.RPCClientOpts{
			HTTPClient: httputil.NewClient(cfg.Solana.RPCTimeout.Duration),
		}))
		app.resourceManager.RegisterFunc("solana-rpc", client.Close)

		retry := rpcutil.DefaultPolicy()
		retry.MaxRetries = cfg.Solana.RPCMaxRetries
		app.Chain = solanapay.NewRPCChain(client, solanapay.RPCChainConfig{
			Network:    cfg.Solana.Cluster,
			Commitment: rpc.CommitmentType(cfg.Solana.Commitment),
			Timeout:    cfg.Solana.RPCTimeout.Duration,
			Retry:      retry,
		}, breakers, app.metricsCollector)
	}

	if optState.invoices != nil {
		app.Invoices = optState.invoices
	} else {
		repo, err := app.openInvoices(ctx, breakers)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Invoices = repo
	}

	assembler := solanapay.NewAssembler(app.Chain, solanapay.Options{
		ComputeUnitLimit: cfg.Solana.ComputeUnitLimit,
		ComputeUnitPrice: cfg.Solana.ComputeUnitPriceMicroLamports,
	})
	app.Pipeline = payment.NewPipeline(assets, assembler, app.metricsCollector)

	if optState.router != nil {
		app.router = optState.router
	} else {
		app.router = chi.NewRouter()
	}

	deps := httpserver.Deps{
		Pipeline: app.Pipeline,
		Invoices: app.Invoices,
		Metrics:  app.metricsCollector,
		Logger:   appLogger,
	}
	if hc, ok := app.Chain.(httpserver.HealthChecker); ok {
		deps.Chain = hc
	}
	httpserver.ConfigureRouter(app.router, cfg, deps)

	appLogger.Info().
		Str("cluster", cfg.Solana.Cluster).
		Strs("assets", assets.Symbols()).
		Str("invoice_source", cfg.Invoices.Source).
		Msg("paylink.app_ready")

	return app, nil
}

// openInvoices opens the configured store. The postgres source shares one
// pool owned by the app.
func (a *App) openInvoices(ctx context.Context, breakers *circuitbreaker.Manager) (invoices.Repository, error) {
	deps := invoices.Deps{
		Metrics:  a.metricsCollector,
		Breakers: breakers,
	}

	if a.Config.Invoices.Source == "postgres" {
		pool, err := dbpool.NewSharedPool(ctx, a.Config.Invoices.PostgresURL, a.Config.Invoices.PostgresPool)
		if err != nil {
			return nil, fmt.Errorf("invoice store: %w", err)
		}
		a.resourceManager.Register("postgres-pool", pool)
		deps.SharedDB = pool.DB()
	}

	repo, err := invoices.NewRepository(a.Config.Invoices, deps)
	if err != nil {
		return nil, fmt.Errorf("invoice store: %w", err)
	}
	a.resourceManager.Register("invoice-repository", repo)
	return repo, nil
}

// Router returns the chi router with action routes registered.
func (a *App) Router() chi.Router {
	return a.router
}

// Handler exposes the router as an http.Handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Logger returns the logger the app was built with.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	return a.resourceManager.Close()
}

// NewHandler is a convenience that constructs an App and returns its handler.
func NewHandler(ctx context.Context, cfg *config.Config, opts ...Option) (http.Handler, func(context.Context) error, error) {
	app, err := NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func(context.Context) error {
		return app.Close()
	}
	return app.Handler(), shutdown, nil
}

// Config is an exported alias of the internal configuration struct for embedding use.
type Config = config.Config

// LoadConfig wraps the internal loader for consumers embedding Paylink.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
