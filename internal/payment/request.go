// Package payment turns payment parameters from any source into either
// action metadata or one unsigned transfer transaction.
package payment

import (
	"github.com/gagliardetto/solana-go"
	"github.com/paylinkhq/server/internal/money"
	"github.com/shopspring/decimal"
)

// MaxMemoBytes caps the memo attached to a transaction.
const MaxMemoBytes = 256

// RawRequest holds unvalidated parameters exactly as a source supplied them.
type RawRequest struct {
	To      string
	Amount  string
	Token   string
	Account string // payer; build requests only
	Memo    string

	// Optional context from invoice-backed sources.
	InvoiceID   string
	Description string
}

// Request is a validated payment.
type Request struct {
	Payer     solana.PublicKey // zero for metadata requests
	Payee     solana.PublicKey
	Asset     money.Asset
	Amount    decimal.Decimal
	HasAmount bool
	Money     money.Money // set when HasAmount
	Memo      string

	InvoiceID   string
	Description string
}
