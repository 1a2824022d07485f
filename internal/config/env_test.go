package config

import (
	"testing"
	"time"
)

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:    "PAYLINK_SERVER_ADDRESS overrides default",
			envVars: map[string]string{"PAYLINK_SERVER_ADDRESS": ":3000"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("Expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name:    "route prefix is normalized",
			envVars: map[string]string{"PAYLINK_ROUTE_PREFIX": "api/"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.RoutePrefix != "/api" {
					t.Errorf("Expected /api, got %s", cfg.Server.RoutePrefix)
				}
			},
		},
		{
			name: "solana settings",
			envVars: map[string]string{
				"PAYLINK_SOLANA_CLUSTER":         "mainnet-beta",
				"PAYLINK_SOLANA_RPC_URL":         "https://rpc.example.com",
				"PAYLINK_SOLANA_RPC_TIMEOUT":     "750ms",
				"PAYLINK_SOLANA_RPC_MAX_RETRIES": "4",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Solana.Cluster != "mainnet-beta" || cfg.Solana.RPCURL != "https://rpc.example.com" {
					t.Errorf("unexpected solana config: %+v", cfg.Solana)
				}
				if cfg.Solana.RPCTimeout.Duration != 750*time.Millisecond {
					t.Errorf("rpc timeout = %v", cfg.Solana.RPCTimeout)
				}
				if cfg.Solana.RPCMaxRetries != 4 {
					t.Errorf("rpc retries = %d", cfg.Solana.RPCMaxRetries)
				}
			},
		},
		{
			name: "invalid numbers are ignored",
			envVars: map[string]string{
				"PAYLINK_SOLANA_RPC_MAX_RETRIES": "lots",
				"PAYLINK_SOLANA_RPC_TIMEOUT":     "soon",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Solana.RPCMaxRetries != 2 {
					t.Errorf("rpc retries = %d, want default 2", cfg.Solana.RPCMaxRetries)
				}
				if cfg.Solana.RPCTimeout.Duration != 5*time.Second {
					t.Errorf("rpc timeout = %v, want default", cfg.Solana.RPCTimeout)
				}
			},
		},
		{
			name: "invoice store",
			envVars: map[string]string{
				"PAYLINK_INVOICES_SOURCE":       "postgres",
				"PAYLINK_INVOICES_POSTGRES_URL": "postgres://u:p@localhost/db",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Invoices.Source != "postgres" || cfg.Invoices.PostgresURL == "" {
					t.Errorf("unexpected invoices config: %+v", cfg.Invoices)
				}
			},
		},
		{
			name: "booleans",
			envVars: map[string]string{
				"PAYLINK_RATE_LIMIT_PER_IP_ENABLED": "false",
				"PAYLINK_CIRCUIT_BREAKER_ENABLED":   "0",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.RateLimit.PerIPEnabled || cfg.CircuitBreaker.Enabled {
					t.Error("expected toggles to be disabled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestNormalizeRoutePrefix(t *testing.T) {
	tests := map[string]string{
		"":       "",
		"api":    "/api",
		"/api/":  "/api",
		" /x/y ": "/x/y",
	}
	for in, want := range tests {
		if got := normalizeRoutePrefix(in); got != want {
			t.Errorf("normalizeRoutePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
