package solanapay_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/paylinkhq/server/internal/money"
	"github.com/paylinkhq/server/pkg/solanapay"
	"github.com/paylinkhq/server/pkg/solanapay/solanapaytest"
)

var (
	payer = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	payee = solana.MustPublicKeyFromBase58("HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH")

	registry = money.MustNewRegistry(money.ClusterDevnet, "")
	sol, _   = registry.Resolve("SOL")
	usdc, _  = registry.Resolve("USDC")
)

func TestAssemble_Native(t *testing.T) {
	chain := solanapaytest.NewChain()
	a := solanapay.NewAssembler(chain, solanapay.Options{})

	out, err := a.Assemble(context.Background(), solanapay.Transfer{
		Payer:  payer,
		Payee:  payee,
		Asset:  sol,
		Atomic: 1_500_000_000,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	tx, err := solanapaytest.Decode(out.Transaction)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !tx.FeePayer.Equals(payer) || out.FeePayer != payer.String() {
		t.Errorf("fee payer = %s, want %s", tx.FeePayer, payer)
	}
	if !reflect.DeepEqual(tx.Kinds(), []solanapaytest.Kind{solanapaytest.KindSystemTransfer}) {
		t.Fatalf("instructions = %v", tx.Kinds())
	}
	transfer := tx.Instructions[0]
	if transfer.Amount != 1_500_000_000 {
		t.Errorf("lamports = %d", transfer.Amount)
	}
	if !transfer.Accounts[0].Equals(payer) || !transfer.Accounts[1].Equals(payee) {
		t.Errorf("transfer accounts = %v", transfer.Accounts)
	}
	if tx.Blockhash != chain.Checkpoint || out.Blockhash != chain.Checkpoint.String() {
		t.Errorf("blockhash = %s", tx.Blockhash)
	}
	if out.LastValidBlockHeight != chain.LastValid {
		t.Errorf("last valid height = %d", out.LastValidBlockHeight)
	}
	if out.CreatesAccount {
		t.Error("native transfer never creates an account")
	}
	// Native transfers only need the blockhash.
	if chain.Calls() != 1 {
		t.Errorf("chain calls = %d, want 1", chain.Calls())
	}
}

func TestAssemble_TokenOrdering(t *testing.T) {
	tests := []struct {
		name          string
		payeeHasATA   bool
		memo          string
		wantKinds     []solanapaytest.Kind
		wantCreatesTA bool
	}{
		{
			name:          "missing destination with memo",
			memo:          "invoice:42",
			wantKinds:     []solanapaytest.Kind{solanapaytest.KindCreateAccount, solanapaytest.KindTokenTransfer, solanapaytest.KindMemo},
			wantCreatesTA: true,
		},
		{
			name:          "missing destination without memo",
			wantKinds:     []solanapaytest.Kind{solanapaytest.KindCreateAccount, solanapaytest.KindTokenTransfer},
			wantCreatesTA: true,
		},
		{
			name:        "existing destination with memo",
			payeeHasATA: true,
			memo:        "thanks",
			wantKinds:   []solanapaytest.Kind{solanapaytest.KindTokenTransfer, solanapaytest.KindMemo},
		},
		{
			name:        "existing destination",
			payeeHasATA: true,
			wantKinds:   []solanapaytest.Kind{solanapaytest.KindTokenTransfer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := solanapaytest.NewChain()
			if tt.payeeHasATA {
				chain.AddTokenAccount(payee, usdc.Mint)
			}
			a := solanapay.NewAssembler(chain, solanapay.Options{})

			out, err := a.Assemble(context.Background(), solanapay.Transfer{
				Payer:  payer,
				Payee:  payee,
				Asset:  usdc,
				Atomic: 10_000_000,
				Memo:   tt.memo,
			})
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if out.CreatesAccount != tt.wantCreatesTA {
				t.Errorf("CreatesAccount = %v, want %v", out.CreatesAccount, tt.wantCreatesTA)
			}

			tx, err := solanapaytest.Decode(out.Transaction)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(tx.Kinds(), tt.wantKinds) {
				t.Fatalf("instruction order = %v, want %v", tx.Kinds(), tt.wantKinds)
			}

			transfers := tx.Transfers()
			if len(transfers) != 1 {
				t.Fatalf("expected exactly one transfer, got %d", len(transfers))
			}
			tr := transfers[0]
			if tr.Amount != 10_000_000 || tr.Decimals != 6 {
				t.Errorf("transfer amount=%d decimals=%d", tr.Amount, tr.Decimals)
			}

			src, _ := solanapay.HoldingAccount(payer, usdc.Mint)
			dst, _ := solanapay.HoldingAccount(payee, usdc.Mint)
			// TransferChecked accounts: source, mint, destination, owner.
			if !tr.Accounts[0].Equals(src) || !tr.Accounts[1].Equals(usdc.Mint) ||
				!tr.Accounts[2].Equals(dst) || !tr.Accounts[3].Equals(payer) {
				t.Errorf("transfer accounts = %v", tr.Accounts)
			}

			if tt.memo != "" {
				last := tx.Instructions[len(tx.Instructions)-1]
				if !strings.Contains(last.Memo, tt.memo) {
					t.Errorf("memo = %q, want %q", last.Memo, tt.memo)
				}
			}
			if !tx.FeePayer.Equals(payer) {
				t.Errorf("fee payer = %s", tx.FeePayer)
			}
		})
	}
}

func TestAssemble_ComputeBudgetComesFirst(t *testing.T) {
	chain := solanapaytest.NewChain()
	a := solanapay.NewAssembler(chain, solanapay.Options{ComputeUnitLimit: 200_000, ComputeUnitPrice: 1})

	out, err := a.Assemble(context.Background(), solanapay.Transfer{
		Payer: payer, Payee: payee, Asset: usdc, Atomic: 1, Memo: "m",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	tx, _ := solanapaytest.Decode(out.Transaction)
	want := []solanapaytest.Kind{
		solanapaytest.KindComputeBudget,
		solanapaytest.KindComputeBudget,
		solanapaytest.KindCreateAccount,
		solanapaytest.KindTokenTransfer,
		solanapaytest.KindMemo,
	}
	if !reflect.DeepEqual(tx.Kinds(), want) {
		t.Errorf("instruction order = %v, want %v", tx.Kinds(), want)
	}
}

func TestAssemble_Unsigned(t *testing.T) {
	chain := solanapaytest.NewChain()
	a := solanapay.NewAssembler(chain, solanapay.Options{})

	for _, asset := range []money.Asset{sol, usdc} {
		out, err := a.Assemble(context.Background(), solanapay.Transfer{
			Payer: payer, Payee: payee, Asset: asset, Atomic: 5, Memo: "x",
		})
		if err != nil {
			t.Fatalf("Assemble %s: %v", asset.Symbol, err)
		}
		tx, err := solanapaytest.Decode(out.Transaction)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(tx.Tx.Signatures) != 1 {
			t.Errorf("%s: expected a single signer slot, got %d", asset.Symbol, len(tx.Tx.Signatures))
		}
		for _, sig := range tx.Tx.Signatures {
			if !sig.IsZero() {
				t.Errorf("%s: signature slot is populated", asset.Symbol)
			}
		}
		if tx.HasValidSignature(payer) {
			t.Errorf("%s: transaction carries a valid payer signature", asset.Symbol)
		}
	}
}

func TestAssemble_NetworkFailures(t *testing.T) {
	down := errors.New("dial tcp: connection refused")

	t.Run("checkpoint", func(t *testing.T) {
		chain := solanapaytest.NewChain()
		chain.CheckpointErr = down
		_, err := solanapay.NewAssembler(chain, solanapay.Options{}).Assemble(context.Background(), solanapay.Transfer{
			Payer: payer, Payee: payee, Asset: sol, Atomic: 1,
		})
		if !errors.Is(err, down) {
			t.Fatalf("expected network error, got %v", err)
		}
	})

	t.Run("account lookup", func(t *testing.T) {
		chain := solanapaytest.NewChain()
		chain.AccountErr = down
		_, err := solanapay.NewAssembler(chain, solanapay.Options{}).Assemble(context.Background(), solanapay.Transfer{
			Payer: payer, Payee: payee, Asset: usdc, Atomic: 1,
		})
		if !errors.Is(err, down) {
			t.Fatalf("expected network error, got %v", err)
		}
		if chain.CheckpointCalls() != 0 {
			t.Error("blockhash must not be fetched after a failed lookup")
		}
	})
}

func TestAssemble_RejectsMalformedTransfer(t *testing.T) {
	chain := solanapaytest.NewChain()
	a := solanapay.NewAssembler(chain, solanapay.Options{})

	bad := []solanapay.Transfer{
		{Payee: payee, Asset: sol, Atomic: 1},
		{Payer: payer, Asset: sol, Atomic: 1},
		{Payer: payer, Payee: payee, Asset: sol},
		{Payer: payer, Payee: payee, Asset: money.Token("USDC", 6, solana.PublicKey{}), Atomic: 1},
	}
	for i, tr := range bad {
		if _, err := a.Assemble(context.Background(), tr); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
	if chain.Calls() != 0 {
		t.Errorf("malformed transfers must not reach the chain, got %d calls", chain.Calls())
	}
}
