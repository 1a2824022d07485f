package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	breaker := BreakerServiceConfig{
		MaxRequests:         3,
		Interval:            Duration{Duration: 60 * time.Second},
		Timeout:             Duration{Duration: 30 * time.Second},
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}

	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			ReadTimeout:    Duration{Duration: 15 * time.Second},
			WriteTimeout:   Duration{Duration: 15 * time.Second},
			IdleTimeout:    Duration{Duration: 60 * time.Second},
			RequestTimeout: Duration{Duration: 15 * time.Second},
		},
		Solana: SolanaConfig{
			Cluster:       "devnet",
			Commitment:    "confirmed",
			RPCTimeout:    Duration{Duration: 5 * time.Second},
			RPCMaxRetries: 2,
		},
		Action: ActionConfig{
			Title:       "Paylink",
			Icon:        "https://paylink.app/icon.png",
			Description: "Pay an invoice with SOL or USDC",
		},
		Invoices: InvoicesConfig{
			Source:            "yaml",
			CacheTTL:          Duration{Duration: 30 * time.Second},
			BoltPath:          "./data/invoices.db",
			PostgresTableName: "invoices",
			MongoDBCollection: "invoices",
			PostgresPool: PostgresPoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: Duration{Duration: 5 * time.Minute},
			},
		},
		RateLimit: RateLimitConfig{
			// Generous limits; the routes are unauthenticated but cheap
			PerIPEnabled:      true,
			PerIPLimit:        120,
			PerIPWindow:       Duration{Duration: time.Minute},
			PerAccountEnabled: true,
			PerAccountLimit:   30,
			PerAccountWindow:  Duration{Duration: time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			SolanaRPC:    breaker,
			InvoiceStore: breaker,
		},
	}
}

func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
