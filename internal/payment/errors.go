package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/paylinkhq/server/internal/circuitbreaker"
	apierrors "github.com/paylinkhq/server/internal/errors"
	"github.com/paylinkhq/server/pkg/solanapay"
)

// ErrorKind classifies every failure that can leave the pipeline.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingRecipient
	KindMissingSender
	KindInvalidAddress
	KindInvalidAmount
	KindUnsupportedAsset
	KindSelfTransfer
	KindResourceNotFound
	KindAlreadySettled
	KindNetworkUnavailable
)

var kindCodes = map[ErrorKind]apierrors.ErrorCode{
	KindUnknown:            apierrors.ErrCodeInternalError,
	KindMissingRecipient:   apierrors.ErrCodeMissingRecipient,
	KindMissingSender:      apierrors.ErrCodeMissingSender,
	KindInvalidAddress:     apierrors.ErrCodeInvalidAddress,
	KindInvalidAmount:      apierrors.ErrCodeInvalidAmount,
	KindUnsupportedAsset:   apierrors.ErrCodeUnsupportedAsset,
	KindSelfTransfer:       apierrors.ErrCodeSelfTransfer,
	KindResourceNotFound:   apierrors.ErrCodeResourceNotFound,
	KindAlreadySettled:     apierrors.ErrCodeAlreadySettled,
	KindNetworkUnavailable: apierrors.ErrCodeNetworkUnavailable,
}

// Code returns the wire error code.
func (k ErrorKind) Code() apierrors.ErrorCode {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return apierrors.ErrCodeInternalError
}

// HTTPStatus returns 400 for input and state problems, 404 for unknown
// resources and 500 otherwise.
func (k ErrorKind) HTTPStatus() int {
	return k.Code().HTTPStatus()
}

func (k ErrorKind) String() string {
	return string(k.Code())
}

// Error is the only error type the pipeline returns.
type Error struct {
	Kind    ErrorKind
	Message string // safe to show to the payer
	Err     error  // cause, for logs
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf classifies err. Errors from outside the pipeline are classified by
// cause: chain and breaker failures are network errors, anything else is
// unknown.
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	switch {
	case errors.Is(err, solanapay.ErrNetworkUnavailable),
		errors.Is(err, circuitbreaker.ErrOpen),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetworkUnavailable
	default:
		return KindUnknown
	}
}

// AsError returns err as a pipeline error, classifying foreign errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr
	}
	kind := KindOf(err)
	msg := "internal error"
	if kind == KindNetworkUnavailable {
		msg = "Solana network is unavailable, please retry"
	}
	return newError(kind, msg, err)
}
