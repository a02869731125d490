package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response served to the
// dashboard collaborator.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string { return e.Message }

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates a new APIError with the given parameters.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// Predefined responses for the read-only summary surface.
var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrUnknownSummary = NewAPIError(http.StatusNotFound, "UNKNOWN_SUMMARY", "Unknown summary kind")
	ErrNoSnapshot     = NewAPIError(http.StatusServiceUnavailable, "NO_SNAPSHOT", "Pipeline has not produced a snapshot yet")
	ErrInternalServer = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// APIErrorWithDetails attaches details to a copy of a predefined error.
func APIErrorWithDetails(base *APIError, details interface{}) *APIError {
	return &APIError{
		StatusCode: base.StatusCode,
		ErrorCode:  base.ErrorCode,
		Message:    base.Message,
		Details:    details,
	}
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse wraps an APIError in the standard envelope.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: err}
}

// Render implements the render.Renderer interface.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
