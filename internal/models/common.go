package models

import (
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error codes
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeStorageError      = "STORAGE_ERROR"
	ErrCodeValidationError   = "VALIDATION_ERROR"
	ErrCodeDocumentRequired  = "DOCUMENT_REQUIRED"
	ErrCodeCameraUnavailable = "CAMERA_UNAVAILABLE"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNoSelection       = "NO_SELECTION"
	ErrCodeRequestNotFound   = "REQUEST_NOT_FOUND"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeUnsupportedMedia  = "UNSUPPORTED_MEDIA"
)

// HTTPStatusForErrorCode returns the appropriate HTTP status code for an error code
func HTTPStatusForErrorCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidationError, ErrCodeDocumentRequired, ErrCodeInvalidStatus:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeRequestNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeInvalidTransition, ErrCodeNoSelection, ErrCodeCameraUnavailable:
		return http.StatusConflict
	case ErrCodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case ErrCodeInternalError, ErrCodeStorageError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewSuccessResponse creates a new success response
func NewSuccessResponse(message string, data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Message: message,
		Data:    data,
	}
}
