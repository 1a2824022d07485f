package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration and all use
// the PAYLINK_ prefix.
func (c *Config) applyEnvOverrides() {
	// Server config
	setIfEnv(&c.Server.Address, "PAYLINK_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "PAYLINK_ROUTE_PREFIX")
	setIfEnv(&c.Server.PublicBaseURL, "PAYLINK_PUBLIC_BASE_URL")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "PAYLINK_ADMIN_METRICS_API_KEY")
	setDurationIfEnv(&c.Server.RequestTimeout, "PAYLINK_REQUEST_TIMEOUT")

	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "PAYLINK_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "PAYLINK_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "PAYLINK_ENVIRONMENT")

	// Solana config
	setIfEnv(&c.Solana.Cluster, "PAYLINK_SOLANA_CLUSTER")
	setIfEnv(&c.Solana.RPCURL, "PAYLINK_SOLANA_RPC_URL")
	setIfEnv(&c.Solana.Commitment, "PAYLINK_SOLANA_COMMITMENT")
	setIfEnv(&c.Solana.USDCMint, "PAYLINK_SOLANA_USDC_MINT")
	setDurationIfEnv(&c.Solana.RPCTimeout, "PAYLINK_SOLANA_RPC_TIMEOUT")
	setIntIfEnv(&c.Solana.RPCMaxRetries, "PAYLINK_SOLANA_RPC_MAX_RETRIES")

	// Action metadata
	setIfEnv(&c.Action.Title, "PAYLINK_ACTION_TITLE")
	setIfEnv(&c.Action.Icon, "PAYLINK_ACTION_ICON")
	setIfEnv(&c.Action.Description, "PAYLINK_ACTION_DESCRIPTION")

	// Invoice store
	setIfEnv(&c.Invoices.Source, "PAYLINK_INVOICES_SOURCE")
	setIfEnv(&c.Invoices.BoltPath, "PAYLINK_INVOICES_BOLT_PATH")
	setIfEnv(&c.Invoices.PostgresURL, "PAYLINK_INVOICES_POSTGRES_URL")
	setIfEnv(&c.Invoices.PostgresTableName, "PAYLINK_INVOICES_POSTGRES_TABLE")
	setIfEnv(&c.Invoices.MongoDBURL, "PAYLINK_INVOICES_MONGODB_URL")
	setIfEnv(&c.Invoices.MongoDBDatabase, "PAYLINK_INVOICES_MONGODB_DATABASE")
	setIfEnv(&c.Invoices.MongoDBCollection, "PAYLINK_INVOICES_MONGODB_COLLECTION")
	setDurationIfEnv(&c.Invoices.CacheTTL, "PAYLINK_INVOICES_CACHE_TTL")

	// Rate limits
	setBoolIfEnv(&c.RateLimit.PerIPEnabled, "PAYLINK_RATE_LIMIT_PER_IP_ENABLED")
	setIntIfEnv(&c.RateLimit.PerIPLimit, "PAYLINK_RATE_LIMIT_PER_IP_LIMIT")
	setBoolIfEnv(&c.RateLimit.PerAccountEnabled, "PAYLINK_RATE_LIMIT_PER_ACCOUNT_ENABLED")
	setIntIfEnv(&c.RateLimit.PerAccountLimit, "PAYLINK_RATE_LIMIT_PER_ACCOUNT_LIMIT")

	setBoolIfEnv(&c.CircuitBreaker.Enabled, "PAYLINK_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv accepts "1" and any casing of "true" as true.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv ignores values that do not parse.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv uses time.ParseDuration for values like "5m" or "120s".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
