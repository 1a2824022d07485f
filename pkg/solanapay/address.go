package solanapay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ErrInvalidAddress is returned for strings that are not 32-byte base58 keys.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ParseAddress validates a base58 wallet address.
func ParseAddress(raw string) (solana.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	if pk.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("%w: %q is the zero address", ErrInvalidAddress, raw)
	}
	return pk, nil
}

// HoldingAccount derives owner's associated token account for mint. The
// derivation is pure; whether the account exists is a separate question.
func HoldingAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account: %w", err)
	}
	return ata, nil
}

// BlockchainID returns the CAIP-2 identifier advertised to wallets.
func BlockchainID(cluster string) string {
	switch cluster {
	case "mainnet-beta":
		return "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	case "testnet":
		return "solana:4uhcVJyU9pJkvQyS88uRDiswHXSCkY3z"
	default:
		return "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
	}
}
