package solanapay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/money"
)

// Options adds optional priority-fee instructions. Zero values omit them.
type Options struct {
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64 // micro-lamports per compute unit
}

// Transfer is one payer-to-payee movement of value.
type Transfer struct {
	Payer  solana.PublicKey
	Payee  solana.PublicKey
	Asset  money.Asset
	Atomic uint64 // base units
	Memo   string // optional
}

// Assembled is an unsigned, serialized transaction plus the facts callers
// may want to report.
type Assembled struct {
	Transaction          string // base64 wire bytes, no signatures
	Blockhash            string
	LastValidBlockHeight uint64
	FeePayer             string
	CreatesAccount       bool
}

// Assembler builds unsigned transfer transactions. It holds no per-request
// state and is safe for concurrent use.
type Assembler struct {
	chain Chain
	opts  Options
}

// NewAssembler returns an Assembler reading cluster state through chain.
func NewAssembler(chain Chain, opts Options) *Assembler {
	return &Assembler{chain: chain, opts: opts}
}

// Assemble produces one transaction with the payer as fee payer. Instruction
// order is fixed: compute budget (if configured), token account creation (if
// the payee has none), the transfer, then the memo. The blockhash is fetched
// last so no network call happens after the transaction is bound to it.
func (a *Assembler) Assemble(ctx context.Context, t Transfer) (Assembled, error) {
	if err := t.validate(); err != nil {
		return Assembled{}, err
	}

	log := logger.FromContext(ctx)

	instructions := make([]solana.Instruction, 0, 5)
	if a.opts.ComputeUnitLimit > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(a.opts.ComputeUnitLimit).Build())
	}
	if a.opts.ComputeUnitPrice > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(a.opts.ComputeUnitPrice).Build())
	}

	createsAccount := false
	switch t.Asset.Kind {
	case money.KindNative:
		instructions = append(instructions,
			system.NewTransferInstruction(t.Atomic, t.Payer, t.Payee).Build(),
		)

	case money.KindToken:
		source, err := HoldingAccount(t.Payer, t.Asset.Mint)
		if err != nil {
			return Assembled{}, err
		}
		destination, err := HoldingAccount(t.Payee, t.Asset.Mint)
		if err != nil {
			return Assembled{}, err
		}

		exists, err := a.chain.AccountExists(ctx, destination)
		if err != nil {
			return Assembled{}, err
		}
		if !exists {
			createsAccount = true
			log.Debug().
				Str("token_account", logger.TruncateAddress(destination.String())).
				Str("owner", logger.TruncateAddress(t.Payee.String())).
				Msg("solanapay.create_token_account")
			instructions = append(instructions,
				associatedtokenaccount.NewCreateInstruction(t.Payer, t.Payee, t.Asset.Mint).Build(),
			)
		}

		// The source account is assumed to exist; the cluster rejects the
		// transaction at broadcast time if it does not.
		instructions = append(instructions,
			token.NewTransferCheckedInstruction(
				t.Atomic,
				t.Asset.Decimals,
				source,
				t.Asset.Mint,
				destination,
				t.Payer,
				[]solana.PublicKey{},
			).Build(),
		)

	default:
		return Assembled{}, fmt.Errorf("unsupported asset kind %s", t.Asset.Kind)
	}

	if t.Memo != "" {
		instructions = append(instructions, memo.NewMemoInstruction([]byte(t.Memo), t.Payer).Build())
	}

	checkpoint, err := a.chain.LatestCheckpoint(ctx)
	if err != nil {
		return Assembled{}, err
	}

	tx, err := solana.NewTransaction(
		instructions,
		checkpoint.Blockhash,
		solana.TransactionPayer(t.Payer),
	)
	if err != nil {
		return Assembled{}, fmt.Errorf("build transaction: %w", err)
	}

	// Serialize without signing. The wire format needs one slot per required
	// signer, so the slots are zero-filled for the wallet to replace.
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return Assembled{}, fmt.Errorf("serialize transaction: %w", err)
	}

	return Assembled{
		Transaction:          base64.StdEncoding.EncodeToString(txBytes),
		Blockhash:            checkpoint.Blockhash.String(),
		LastValidBlockHeight: checkpoint.LastValidBlockHeight,
		FeePayer:             t.Payer.String(),
		CreatesAccount:       createsAccount,
	}, nil
}

func (t Transfer) validate() error {
	switch {
	case t.Payer.IsZero():
		return errors.New("transfer payer is required")
	case t.Payee.IsZero():
		return errors.New("transfer payee is required")
	case t.Atomic == 0:
		return errors.New("transfer amount must be positive")
	case t.Asset.Kind == money.KindToken && t.Asset.Mint.IsZero():
		return fmt.Errorf("token %s has no mint", t.Asset.Symbol)
	}
	return nil
}
