package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error response codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeDimensionMismatch ErrorCode = "vector_dim_mismatch"
	CodeInvalidWeight     ErrorCode = "invalid_weight"
	CodeUnknownSpace      ErrorCode = "unknown_space"
	CodeItemNotFound      ErrorCode = "item_not_found"
	CodeEncoderError      ErrorCode = "encoder_error"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry the full wrapped message; upstream failures only the sentinel text.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = sentinel.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch),
		sentinelHandler(domain.ErrInvalidWeight, http.StatusBadRequest, CodeInvalidWeight),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownSpace, http.StatusBadRequest, CodeUnknownSpace),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeItemNotFound),
		sentinelHandler(domain.ErrEncoderError, http.StatusBadGateway, CodeEncoderError),
		sentinelHandler(domain.ErrNoSpaces, http.StatusNotImplemented, CodeNotImplemented),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
}
