package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/paylinkhq/server/internal/logger"
	"github.com/paylinkhq/server/internal/metrics"
	"github.com/paylinkhq/server/internal/money"
	"github.com/paylinkhq/server/pkg/solanapay"
)

// AmountPlaceholder is the parameter template wallets substitute with the
// amount the payer enters.
const AmountPlaceholder = "{amount}"

// TxBuilder assembles one unsigned transaction. *solanapay.Assembler
// satisfies it.
type TxBuilder interface {
	Assemble(ctx context.Context, t solanapay.Transfer) (solanapay.Assembled, error)
}

// ActionInfo is the static presentation of an action plus the href of its
// build endpoint for the current parameters.
type ActionInfo struct {
	Title       string
	Icon        string
	Description string
	Href        string
}

// Metadata is the action description returned by metadata requests.
type Metadata struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Label       string `json:"label"`
	Links       Links  `json:"links"`
}

// Links lists the actions a wallet may offer.
type Links struct {
	Actions []LinkedAction `json:"actions"`
}

// LinkedAction is one button. Parameters are present only when the payer
// must fill something in.
type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

// ActionParameter is a user-entry field.
type ActionParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// BuildResult is the response to a build request.
type BuildResult struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message"`

	Assembled solanapay.Assembled `json:"-"`
	Request   Request             `json:"-"`
}

// Pipeline is shared by every entry point: a Source supplies raw parameters,
// then validation, asset resolution and assembly run identically.
type Pipeline struct {
	validator Validator
	builder   TxBuilder
	metrics   *metrics.Metrics
}

// NewPipeline returns a Pipeline. m may be nil.
func NewPipeline(assets *money.Registry, builder TxBuilder, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		validator: Validator{Assets: assets},
		builder:   builder,
		metrics:   m,
	}
}

// Describe returns action metadata. It never touches the chain, and the
// same inputs always produce the same output.
func (p *Pipeline) Describe(ctx context.Context, src Source, action ActionInfo) (Metadata, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return Metadata{}, AsError(err)
	}
	req, err := p.validator.ValidateDescribe(raw)
	if err != nil {
		return Metadata{}, err
	}

	description := action.Description
	if req.Description != "" {
		description = req.Description
	}

	meta := Metadata{
		Type:        "action",
		Title:       action.Title,
		Icon:        action.Icon,
		Description: description,
	}

	if req.HasAmount {
		label := "Pay " + req.Money.String()
		meta.Label = label
		meta.Links.Actions = []LinkedAction{{Label: label, Href: action.Href}}
		return meta, nil
	}

	meta.Label = fmt.Sprintf("Pay %s %s", AmountPlaceholder, req.Asset.Symbol)
	meta.Links.Actions = []LinkedAction{{
		Label: "Pay " + req.Asset.Symbol,
		Href:  withAmountTemplate(action.Href),
		Parameters: []ActionParameter{{
			Name:     "amount",
			Label:    "Amount in " + req.Asset.Symbol,
			Required: true,
		}},
	}}
	return meta, nil
}

// Build validates the request and assembles one unsigned transaction. On
// any failure no transaction is returned.
func (p *Pipeline) Build(ctx context.Context, src Source) (BuildResult, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return BuildResult{}, AsError(err)
	}
	req, err := p.validator.ValidateBuild(raw)
	if err != nil {
		return BuildResult{}, err
	}

	log := logger.FromContext(ctx)
	assembled, err := p.builder.Assemble(ctx, solanapay.Transfer{
		Payer:  req.Payer,
		Payee:  req.Payee,
		Asset:  req.Asset,
		Atomic: req.Money.Atomic,
		Memo:   req.Memo,
	})
	if err != nil {
		pErr := AsError(err)
		log.Warn().
			Err(err).
			Str("kind", pErr.Kind.String()).
			Str("asset", req.Asset.Symbol).
			Msg("action.build_failed")
		return BuildResult{}, pErr
	}

	amountMajor, _ := req.Money.Decimal().Float64()
	p.metrics.ObserveTransaction(req.Asset.Symbol, assembled.CreatesAccount, amountMajor)

	log.Info().
		Str("payer", logger.TruncateAddress(req.Payer.String())).
		Str("payee", logger.TruncateAddress(req.Payee.String())).
		Str("amount", req.Money.String()).
		Uint64("atomic", req.Money.Atomic).
		Bool("creates_account", assembled.CreatesAccount).
		Str("invoice_id", req.InvoiceID).
		Msg("action.transaction_built")

	return BuildResult{
		Transaction: assembled.Transaction,
		Message:     fmt.Sprintf("Sending %s to %s", req.Money.String(), req.Payee.String()),
		Assembled:   assembled,
		Request:     req,
	}, nil
}

// withAmountTemplate adds an amount={amount} query parameter. The braces are
// left unescaped so wallets can substitute them.
func withAmountTemplate(href string) string {
	sep := "?"
	if strings.Contains(href, "?") {
		sep = "&"
	}
	return href + sep + "amount=" + AmountPlaceholder
}
