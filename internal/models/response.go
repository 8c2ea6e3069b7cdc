// Package models - API response types.
// All rejection responses share a single JSON shape so clients and log
// pipelines parse one structure regardless of which gate rejected the call.
package models

import (
	"time"
)

// Machine-readable error codes for rejection responses.
const (
	// ErrorCodeUnauthorized covers every authentication failure: malformed
	// header, unknown key, unsupported algorithm, insufficient signed
	// components, and plain digest mismatch. Collapsing them is deliberate;
	// the response must not reveal which check failed.
	ErrorCodeUnauthorized = "UNAUTHORIZED" // 401

	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED"        // 429
	ErrorCodeConcurrencyLimited = "CONCURRENCY_LIMIT_EXCEEDED" // 423
	ErrorCodeBadGateway         = "BAD_GATEWAY"                // 502
	ErrorCodeInternalError      = "INTERNAL_ERROR"             // 500
)

// ErrorResponse is the uniform JSON error body.
type ErrorResponse struct {
	Error     string    `json:"error"`                // Always "error"
	Message   string    `json:"message"`              // Human-readable description
	Code      string    `json:"code,omitempty"`       // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`            // Error occurrence time
	RequestID string    `json:"request_id,omitempty"` // Correlation id when known
}

// NewErrorResponse creates a standardized error response.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// HealthCheckResponse reports service liveness.
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}
