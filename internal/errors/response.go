package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body returned by every endpoint. Action clients
// read the top-level message, so the fields are not nested.
type ErrorResponse struct {
	Message   string    `json:"message"`
	Code      ErrorCode `json:"code"`
	Retryable bool      `json:"retryable"`
	Stack     string    `json:"stack,omitempty"` // non-production only
}

// NewErrorResponse creates an error body for code.
func NewErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Message:   message,
		Code:      code,
		Retryable: code.IsRetryable(),
	}
}

// WithStack attaches a debug stack trace.
func (e ErrorResponse) WithStack(stack string) ErrorResponse {
	e.Stack = stack
	return e
}

// WriteJSON writes the error with the status derived from its code.
func (e ErrorResponse) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code.HTTPStatus())
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(e)
}

// WriteError writes an error response in one call.
func WriteError(w http.ResponseWriter, code ErrorCode, message string) {
	NewErrorResponse(code, message).WriteJSON(w)
}
