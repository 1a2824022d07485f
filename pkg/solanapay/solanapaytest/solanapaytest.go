// Package solanapaytest provides a scripted Chain and a decoder for the
// transactions built by solanapay, for use in tests.
package solanapaytest

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/paylinkhq/server/pkg/solanapay"
)

// Chain is an in-memory solanapay.Chain that counts calls.
type Chain struct {
	mu sync.Mutex

	Checkpoint    solana.Hash
	LastValid     uint64
	Accounts      map[solana.PublicKey]bool
	CheckpointErr error
	AccountErr    error

	checkpointCalls int
	accountCalls    int
}

// NewChain returns a Chain with a fixed blockhash and no accounts.
func NewChain() *Chain {
	return &Chain{
		Checkpoint: solana.MustHashFromBase58("EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"),
		LastValid:  1_000,
		Accounts:   make(map[solana.PublicKey]bool),
	}
}

// LatestCheckpoint implements solanapay.Chain.
func (c *Chain) LatestCheckpoint(ctx context.Context) (solanapay.Checkpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkpointCalls++
	if c.CheckpointErr != nil {
		return solanapay.Checkpoint{}, c.CheckpointErr
	}
	return solanapay.Checkpoint{Blockhash: c.Checkpoint, LastValidBlockHeight: c.LastValid}, nil
}

// AccountExists implements solanapay.Chain.
func (c *Chain) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountCalls++
	if c.AccountErr != nil {
		return false, c.AccountErr
	}
	return c.Accounts[account], nil
}

// AddTokenAccount marks owner's associated token account for mint as existing.
func (c *Chain) AddTokenAccount(owner, mint solana.PublicKey) {
	ata, err := solanapay.HoldingAccount(owner, mint)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.Accounts[ata] = true
	c.mu.Unlock()
}

// Calls returns the total number of chain reads.
func (c *Chain) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkpointCalls + c.accountCalls
}

// CheckpointCalls returns how many blockhashes were fetched.
func (c *Chain) CheckpointCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkpointCalls
}

// Kind names an instruction in a decoded transaction.
type Kind string

const (
	KindComputeBudget  Kind = "compute_budget"
	KindCreateAccount  Kind = "create_token_account"
	KindSystemTransfer Kind = "system_transfer"
	KindTokenTransfer  Kind = "token_transfer_checked"
	KindMemo           Kind = "memo"
	KindOther          Kind = "other"
)

// Instruction is a decoded instruction.
type Instruction struct {
	Kind     Kind
	Program  solana.PublicKey
	Accounts []solana.PublicKey
	Amount   uint64 // transfers only
	Decimals uint8  // token transfers only
	Memo     string
}

// Decoded is the readable form of a built transaction.
type Decoded struct {
	Tx           *solana.Transaction
	FeePayer     solana.PublicKey
	Blockhash    solana.Hash
	Instructions []Instruction
}

// Kinds lists instruction kinds in order.
func (d Decoded) Kinds() []Kind {
	out := make([]Kind, len(d.Instructions))
	for i, ix := range d.Instructions {
		out[i] = ix.Kind
	}
	return out
}

// Transfers returns the value-moving instructions.
func (d Decoded) Transfers() []Instruction {
	var out []Instruction
	for _, ix := range d.Instructions {
		if ix.Kind == KindSystemTransfer || ix.Kind == KindTokenTransfer {
			out = append(out, ix)
		}
	}
	return out
}

// HasValidSignature reports whether any signature slot verifies for key.
func (d Decoded) HasValidSignature(key solana.PublicKey) bool {
	msg, err := d.Tx.Message.MarshalBinary()
	if err != nil {
		return false
	}
	for _, sig := range d.Tx.Signatures {
		if sig.Verify(key, msg) {
			return true
		}
	}
	return false
}

// Decode parses a base64 transaction.
func Decode(b64 string) (Decoded, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Decoded{}, fmt.Errorf("decode base64: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return Decoded{}, fmt.Errorf("decode transaction: %w", err)
	}
	if len(tx.Message.AccountKeys) == 0 {
		return Decoded{}, fmt.Errorf("transaction has no account keys")
	}

	out := Decoded{
		Tx:        tx,
		FeePayer:  tx.Message.AccountKeys[0],
		Blockhash: tx.Message.RecentBlockhash,
	}
	keys := tx.Message.AccountKeys
	for _, ci := range tx.Message.Instructions {
		if int(ci.ProgramIDIndex) >= len(keys) {
			return Decoded{}, fmt.Errorf("program index %d out of range", ci.ProgramIDIndex)
		}
		ix := Instruction{Program: keys[ci.ProgramIDIndex], Kind: KindOther}
		for _, idx := range ci.Accounts {
			ix.Accounts = append(ix.Accounts, keys[idx])
		}
		data := []byte(ci.Data)

		switch {
		case ix.Program.Equals(computebudget.ProgramID):
			ix.Kind = KindComputeBudget
		case ix.Program.Equals(solana.SPLAssociatedTokenAccountProgramID):
			ix.Kind = KindCreateAccount
		case ix.Program.Equals(solana.SystemProgramID):
			// u32 discriminator 2 = Transfer, followed by u64 lamports.
			if len(data) == 12 && binary.LittleEndian.Uint32(data[:4]) == 2 {
				ix.Kind = KindSystemTransfer
				ix.Amount = binary.LittleEndian.Uint64(data[4:12])
			}
		case ix.Program.Equals(solana.TokenProgramID):
			// u8 discriminator 12 = TransferChecked, u64 amount, u8 decimals.
			if len(data) == 10 && data[0] == 12 {
				ix.Kind = KindTokenTransfer
				ix.Amount = binary.LittleEndian.Uint64(data[1:9])
				ix.Decimals = data[9]
			}
		case ix.Program.Equals(solana.MemoProgramID):
			ix.Kind = KindMemo
			ix.Memo = string(data)
		}
		out.Instructions = append(out.Instructions, ix)
	}
	return out, nil
}
