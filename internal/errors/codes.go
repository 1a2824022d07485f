package errors

// ErrorCode is the machine-readable identifier sent alongside every error
// message so wallets and display surfaces can branch without parsing text.
type ErrorCode string

// Request validation errors
const (
	ErrCodeMissingRecipient ErrorCode = "missing_recipient"
	ErrCodeMissingSender    ErrorCode = "missing_sender"
	ErrCodeInvalidAddress   ErrorCode = "invalid_address"
	ErrCodeInvalidAmount    ErrorCode = "invalid_amount"
	ErrCodeUnsupportedAsset ErrorCode = "unsupported_asset"
	ErrCodeSelfTransfer     ErrorCode = "self_transfer"
)

// Resource/state errors
const (
	ErrCodeResourceNotFound ErrorCode = "resource_not_found"
	ErrCodeAlreadySettled   ErrorCode = "already_settled"
)

// Access errors
const (
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeRateLimited  ErrorCode = "rate_limited"
)

// Upstream and internal errors
const (
	ErrCodeNetworkUnavailable ErrorCode = "network_unavailable"
	ErrCodeInternalError      ErrorCode = "internal_error"
)

// IsRetryable reports whether the same request may succeed if sent again.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeNetworkUnavailable, ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the status code written with this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	// 400 Bad Request - client input and settled resources
	case ErrCodeMissingRecipient,
		ErrCodeMissingSender,
		ErrCodeInvalidAddress,
		ErrCodeInvalidAmount,
		ErrCodeUnsupportedAsset,
		ErrCodeSelfTransfer,
		ErrCodeAlreadySettled:
		return 400

	case ErrCodeUnauthorized:
		return 401

	case ErrCodeResourceNotFound:
		return 404

	case ErrCodeRateLimited:
		return 429

	// Network failures are reported as 500 rather than 502 so wallets treat
	// them like any other server-side failure.
	default:
		return 500
	}
}
