package solanapay

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", false},
		{"padded", " 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM ", false},
		{"empty", "", true},
		{"not base58", "not-an-address", true},
		{"too short", "9WzDXwBbmkg8ZTbN", true},
		{"zero key", "11111111111111111111111111111111", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func TestHoldingAccount_Deterministic(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	a, err := HoldingAccount(owner, mint)
	if err != nil {
		t.Fatalf("HoldingAccount: %v", err)
	}
	b, _ := HoldingAccount(owner, mint)
	if !a.Equals(b) {
		t.Error("derivation is not deterministic")
	}
	want, _, _ := solana.FindAssociatedTokenAddress(owner, mint)
	if !a.Equals(want) {
		t.Errorf("got %s, want %s", a, want)
	}
}

func TestBlockchainID(t *testing.T) {
	if BlockchainID("mainnet-beta") != "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp" {
		t.Error("unexpected mainnet id")
	}
	if BlockchainID("devnet") != "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1" {
		t.Error("unexpected devnet id")
	}
}
