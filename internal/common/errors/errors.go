// Package errors provides standardized error handling for the status board.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Recommendation pipeline failures.
const (
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeMalformedEnvelope  ErrorCode = "MALFORMED_ENVELOPE"
	ErrCodeUnparsableResponse ErrorCode = "UNPARSABLE_RESPONSE"
	ErrCodeInvalidShape       ErrorCode = "INVALID_SHAPE"
	ErrCodeUnknownLocation    ErrorCode = "UNKNOWN_LOCATION"
)

// Status board failures.
const (
	ErrCodeStatusStoreFailed   ErrorCode = "STATUS_STORE_FAILED"
	ErrCodeInvalidStatusUpdate ErrorCode = "INVALID_STATUS_UPDATE"
	ErrCodeUnknownLocationID   ErrorCode = "UNKNOWN_LOCATION_ID"
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeMethodNotAllowed    ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewStatusStoreFailedError creates a retryable storage error.
func NewStatusStoreFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatusStoreFailed,
		Message:   "Status store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidStatusUpdateError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatusUpdate,
		Message:   "Status update failed validation",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownLocationIDError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownLocationID,
		Message:   "Unknown location",
		Details:   fmt.Sprintf("locationId: %s", id),
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request body",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewMethodNotAllowedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   "Method not allowed",
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError when one is in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is transient.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeExternalService, ErrCodeStatusStoreFailed:
		return true
	}
	return false
}

// HTTPStatus maps a code to the status the board server answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeInvalidStatusUpdate:
		return http.StatusBadRequest
	case ErrCodeUnknownLocationID:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeExternalService:
		return "UPSTREAM"
	case strings.Contains(codeStr, "ENVELOPE") || strings.Contains(codeStr, "RESPONSE") ||
		strings.Contains(codeStr, "SHAPE") || code == ErrCodeUnknownLocation:
		return "AI"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNKNOWN"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
