package solanapay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/paylinkhq/server/internal/circuitbreaker"
	"github.com/paylinkhq/server/internal/metrics"
	"github.com/paylinkhq/server/internal/rpcutil"
)

// RPCChainConfig tunes how the cluster is queried.
type RPCChainConfig struct {
	Network    string // label for metrics
	Commitment rpc.CommitmentType
	Timeout    time.Duration // per attempt
	Retry      rpcutil.Policy
}

// RPCChain implements Chain over JSON-RPC. Each attempt runs under its own
// deadline inside the RPC circuit breaker; transient failures are retried
// according to the configured policy.
type RPCChain struct {
	client   *rpc.Client
	cfg      RPCChainConfig
	breakers *circuitbreaker.Manager
	metrics  *metrics.Metrics
}

// NewRPCChain wraps client. breakers and m may be nil.
func NewRPCChain(client *rpc.Client, cfg RPCChainConfig, breakers *circuitbreaker.Manager, m *metrics.Metrics) *RPCChain {
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &RPCChain{client: client, cfg: cfg, breakers: breakers, metrics: m}
}

// LatestCheckpoint fetches the most recent blockhash.
func (c *RPCChain) LatestCheckpoint(ctx context.Context) (Checkpoint, error) {
	cp, err := call(ctx, c, "getLatestBlockhash", func(ctx context.Context) (Checkpoint, error) {
		out, err := c.client.GetLatestBlockhash(ctx, c.cfg.Commitment)
		if err != nil {
			return Checkpoint{}, err
		}
		if out == nil || out.Value == nil {
			return Checkpoint{}, errors.New("empty getLatestBlockhash response")
		}
		return Checkpoint{
			Blockhash:            out.Value.Blockhash,
			LastValidBlockHeight: out.Value.LastValidBlockHeight,
		}, nil
	})
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: fetch latest blockhash: %v", ErrNetworkUnavailable, err)
	}
	return cp, nil
}

// AccountExists reports whether account has been created on chain.
func (c *RPCChain) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	exists, err := call(ctx, c, "getAccountInfo", func(ctx context.Context) (bool, error) {
		out, err := c.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
			Commitment: c.cfg.Commitment,
			Encoding:   solana.EncodingBase64,
		})
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return out != nil && out.Value != nil, nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: look up account %s: %v", ErrNetworkUnavailable, account, err)
	}
	return exists, nil
}

// Health calls getHealth; used by the readiness probe.
func (c *RPCChain) Health(ctx context.Context) error {
	_, err := call(ctx, c, "getHealth", func(ctx context.Context) (string, error) {
		return c.client.GetHealth(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	return nil
}

// BreakerState exposes the RPC breaker state for health reporting.
func (c *RPCChain) BreakerState() string {
	return c.breakers.State(circuitbreaker.ServiceSolanaRPC)
}

func call[T any](ctx context.Context, c *RPCChain, method string, fn func(context.Context) (T, error)) (T, error) {
	return rpcutil.WithPolicy(ctx, c.cfg.Retry, func(ctx context.Context) (T, error) {
		return circuitbreaker.Do(c.breakers, circuitbreaker.ServiceSolanaRPC, func() (T, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()

			start := time.Now()
			v, err := fn(attemptCtx)
			c.metrics.ObserveRPCCall(method, c.cfg.Network, time.Since(start), err)
			return v, err
		})
	})
}
