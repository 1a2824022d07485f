package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Solana         SolanaConfig         `yaml:"solana"`
	Action         ActionConfig         `yaml:"action"`
	Invoices       InvoicesConfig       `yaml:"invoices"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	RequestTimeout     Duration `yaml:"request_timeout"`       // Upper bound for a whole action request
	RoutePrefix        string   `yaml:"route_prefix"`          // Optional prefix for all routes (e.g., "/api")
	PublicBaseURL      string   `yaml:"public_base_url"`       // Absolute origin used in action links; empty = relative links
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // Optional bearer key for /metrics
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// IsProduction reports whether debug details must be withheld from clients.
func (l LoggingConfig) IsProduction() bool {
	return strings.EqualFold(l.Environment, "production")
}

// SolanaConfig selects the cluster and tunes RPC access.
type SolanaConfig struct {
	Cluster                       string   `yaml:"cluster"`     // mainnet-beta, devnet, testnet, localnet
	RPCURL                        string   `yaml:"rpc_url"`     // Defaults to the public endpoint of Cluster
	Commitment                    string   `yaml:"commitment"`  // processed, confirmed, finalized
	RPCTimeout                    Duration `yaml:"rpc_timeout"` // Deadline for each RPC call
	RPCMaxRetries                 int      `yaml:"rpc_max_retries"`
	USDCMint                      string   `yaml:"usdc_mint"` // Overrides the cluster default
	ComputeUnitLimit              uint32   `yaml:"compute_unit_limit"`
	ComputeUnitPriceMicroLamports uint64   `yaml:"compute_unit_price_micro_lamports"`
}

// ActionConfig controls what wallets display for an action.
type ActionConfig struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

// InvoicesConfig selects the invoice store read by the invoice-bound routes.
type InvoicesConfig struct {
	Source            string             `yaml:"source"`             // "yaml", "bolt", "postgres", "mongodb", or "disabled"
	CacheTTL          Duration           `yaml:"cache_ttl"`          // 0 disables the read cache
	BoltPath          string             `yaml:"bolt_path"`          // Database file for the bolt source
	PostgresURL       string             `yaml:"postgres_url"`       // PostgreSQL connection string
	PostgresTableName string             `yaml:"postgres_table_name"`
	PostgresPool      PostgresPoolConfig `yaml:"postgres_pool"`
	MongoDBURL        string             `yaml:"mongodb_url"`
	MongoDBDatabase   string             `yaml:"mongodb_database"`
	MongoDBCollection string             `yaml:"mongodb_collection"`
	Static            []InvoiceEntry     `yaml:"static"` // Only used when Source = "yaml"
}

// InvoiceEntry declares an invoice directly in configuration.
type InvoiceEntry struct {
	ID          string `yaml:"id"`
	Payee       string `yaml:"payee"`
	Amount      string `yaml:"amount"` // Decimal string in major units
	Token       string `yaml:"token"`
	Status      string `yaml:"status"`
	Description string `yaml:"description"`
	ClientName  string `yaml:"client_name"`
	DueDate     string `yaml:"due_date"` // RFC3339 or YYYY-MM-DD
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`    // default: 10
	MaxIdleConns    int      `yaml:"max_idle_conns"`    // default: 2
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"` // default: 5m
}

// RateLimitConfig holds per-caller rate limits for the action routes.
type RateLimitConfig struct {
	PerIPEnabled bool     `yaml:"per_ip_enabled"`
	PerIPLimit   int      `yaml:"per_ip_limit"`
	PerIPWindow  Duration `yaml:"per_ip_window"`

	// Keyed by the "account" field of build requests.
	PerAccountEnabled bool     `yaml:"per_account_enabled"`
	PerAccountLimit   int      `yaml:"per_account_limit"`
	PerAccountWindow  Duration `yaml:"per_account_window"`
}

// CircuitBreakerConfig holds circuit breaker configuration for external services.
type CircuitBreakerConfig struct {
	Enabled      bool                 `yaml:"enabled"`
	SolanaRPC    BreakerServiceConfig `yaml:"solana_rpc"`
	InvoiceStore BreakerServiceConfig `yaml:"invoice_store"`
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`         // Max requests in half-open state
	Interval            Duration `yaml:"interval"`             // Stats reset interval in closed state
	Timeout             Duration `yaml:"timeout"`              // Open state timeout before half-open
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"` // Consecutive failures to trip
	FailureRatio        float64  `yaml:"failure_ratio"`        // Failure ratio to trip 0.0-1.0
	MinRequests         uint32   `yaml:"min_requests"`         // Minimum requests before checking ratio
}
