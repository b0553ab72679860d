package utils

import (
	"errors"
	"fmt"
	"net/http"

	"disasterguardian/models"
)

// ServiceError represents a service-level error with context
type ServiceError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode,omitempty"`
	Details    interface{} `json:"details,omitempty"`
	Cause      error       `json:"-"` // Original error, not exposed in JSON
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// AsServiceError extracts a ServiceError anywhere in the chain
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Common service error constructors
func NewUnauthorizedError(message string) error {
	return &ServiceError{
		Code:       models.ErrCodeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string) error {
	return &ServiceError{
		Code:       models.ErrCodeAuthorization,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewNotFoundError(resource string) error {
	return &ServiceError{
		Code:       models.ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func NewBadRequestError(message string) error {
	return &ServiceError{
		Code:       models.ErrCodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationError(details []ValidationError) error {
	return &ServiceError{
		Code:       models.ErrCodeValidation,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func NewConflictError(message string) error {
	return &ServiceError{
		Code:       models.ErrCodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) error {
	return &ServiceError{
		Code:       models.ErrCodeInternal,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
}

func NewDatabaseError(operation string, cause error) error {
	return &ServiceError{
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("Database operation failed: %s", operation),
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
}

func NewExternalServiceError(service string, cause error) error {
	return &ServiceError{
		Code:       models.ErrCodeExternal,
		Message:    fmt.Sprintf("%s request failed", service),
		Cause:      cause,
		StatusCode: http.StatusBadGateway,
	}
}

func NewRateLimitError(message string) error {
	return &ServiceError{
		Code:       models.ErrCodeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}
