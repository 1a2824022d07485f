package solanapay

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrNetworkUnavailable wraps every failure to read cluster state.
var ErrNetworkUnavailable = errors.New("solana network unavailable")

// Checkpoint binds a transaction to a recent block so the cluster rejects it
// once LastValidBlockHeight has passed.
type Checkpoint struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Chain is the read-only view of the cluster the assembler needs.
// Implementations must be safe for concurrent use.
type Chain interface {
	LatestCheckpoint(ctx context.Context) (Checkpoint, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}
