package payment

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/paylinkhq/server/internal/money"
	"github.com/paylinkhq/server/pkg/solanapay"
)

// Validator checks raw parameters against the asset registry. It performs
// no I/O.
type Validator struct {
	Assets *money.Registry
}

// ValidateDescribe validates a metadata request. The amount is optional.
func (v Validator) ValidateDescribe(raw RawRequest) (Request, error) {
	return v.validate(raw, false)
}

// ValidateBuild validates a build request. Amount and account are required.
func (v Validator) ValidateBuild(raw RawRequest) (Request, error) {
	return v.validate(raw, true)
}

// validate checks fields in a fixed order: recipient, amount, token, sender.
func (v Validator) validate(raw RawRequest, build bool) (Request, error) {
	req := Request{
		Memo:        truncateMemo(strings.TrimSpace(raw.Memo)),
		InvoiceID:   raw.InvoiceID,
		Description: raw.Description,
	}

	to := strings.TrimSpace(raw.To)
	if to == "" {
		return Request{}, newError(KindMissingRecipient, "Missing recipient: 'to' is required", nil)
	}
	payee, err := solanapay.ParseAddress(to)
	if err != nil {
		return Request{}, newError(KindInvalidAddress, "Invalid wallet address for 'to'", err)
	}
	req.Payee = payee

	amountRaw := strings.TrimSpace(raw.Amount)
	switch {
	case amountRaw != "":
		amount, err := money.ParseAmount(amountRaw)
		if err != nil {
			msg := "Invalid amount: must be a positive number"
			if errors.Is(err, money.ErrOutOfRange) {
				msg = "Invalid amount: too many digits or exponent out of range"
			}
			return Request{}, newError(KindInvalidAmount, msg, err)
		}
		req.Amount = amount
		req.HasAmount = true
	case build:
		return Request{}, newError(KindInvalidAmount, "Invalid amount: amount is required", nil)
	}

	asset, err := v.Assets.Resolve(raw.Token)
	if err != nil {
		return Request{}, newError(KindUnsupportedAsset,
			"Unsupported token: supported tokens are "+strings.Join(v.Assets.Symbols(), ", "), err)
	}
	req.Asset = asset

	if req.HasAmount {
		m, err := money.FromMajor(asset, req.Amount)
		if err != nil {
			msg := "Invalid amount: must be a positive number"
			if errors.Is(err, money.ErrAmountTooSmall) {
				msg = "Invalid amount: below the smallest unit of " + asset.Symbol
			}
			return Request{}, newError(KindInvalidAmount, msg, err)
		}
		req.Money = m
	}

	if !build {
		return req, nil
	}

	account := strings.TrimSpace(raw.Account)
	if account == "" {
		return Request{}, newError(KindMissingSender, "Missing sender: 'account' is required", nil)
	}
	payer, err := solanapay.ParseAddress(account)
	if err != nil {
		return Request{}, newError(KindInvalidAddress, "Invalid wallet address for 'account'", err)
	}
	if payer.Equals(payee) {
		return Request{}, newError(KindSelfTransfer, "Invalid request: payer and recipient are the same wallet", nil)
	}
	req.Payer = payer

	return req, nil
}

// truncateMemo cuts memo to MaxMemoBytes without splitting a UTF-8 sequence.
func truncateMemo(memo string) string {
	if len(memo) <= MaxMemoBytes {
		return memo
	}
	cut := MaxMemoBytes
	for cut > 0 && !utf8.RuneStart(memo[cut]) {
		cut--
	}
	return memo[:cut]
}
