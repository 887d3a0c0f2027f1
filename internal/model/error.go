package model

import (
	"errors"
	"net/http"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
}

// Standard error codes
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeDuplicateKey           = "DUPLICATE_KEY"
	ErrCodeAuthFailed             = "AUTH_FAILED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeExternalServiceFailure = "EXTERNAL_SERVICE_FAILURE"
	ErrCodeInvalidSignature       = "INVALID_SIGNATURE"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// DomainError is a business-level failure with a stable code and an HTTP status.
type DomainError struct {
	Code    string
	Message string
	Status  int
	cause   error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError with the same code, so callers can compare
// against the sentinels below even when the message was customised.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == e.Message || t.Message == "")
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Status: e.Status, cause: e.cause}
}

// Wrap returns a copy of the error that records cause for logging.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Status: e.Status, cause: cause}
}

// Category sentinels. errors.Is(err, ErrNotFound) matches every not-found error.
var (
	ErrNotFound               = &DomainError{Code: ErrCodeNotFound, Status: http.StatusNotFound}
	ErrValidation             = &DomainError{Code: ErrCodeValidationFailed, Status: http.StatusBadRequest}
	ErrDuplicateKey           = &DomainError{Code: ErrCodeDuplicateKey, Status: http.StatusConflict}
	ErrAuth                   = &DomainError{Code: ErrCodeAuthFailed, Status: http.StatusUnauthorized}
	ErrForbidden              = &DomainError{Code: ErrCodeForbidden, Status: http.StatusForbidden}
	ErrInvalidTransition      = &DomainError{Code: ErrCodeInvalidTransition, Status: http.StatusBadRequest}
	ErrExternalServiceFailure = &DomainError{Code: ErrCodeExternalServiceFailure, Status: http.StatusBadGateway}
)

// Common domain errors
var (
	ErrProductNotFound  = NewDomainError(ErrCodeNotFound, "Product not found", http.StatusNotFound)
	ErrProductsNotFound = NewDomainError(ErrCodeNotFound, "No Product found with one or more IDs.", http.StatusNotFound)
	ErrOrderNotFound    = NewDomainError(ErrCodeNotFound, "Order not found", http.StatusNotFound)
	ErrUserNotFound     = NewDomainError(ErrCodeNotFound, "User not found", http.StatusNotFound)
	ErrReviewNotFound   = NewDomainError(ErrCodeNotFound, "Review not found", http.StatusNotFound)

	ErrAlreadyDelivered = NewDomainError(ErrCodeInvalidTransition, "You have already delivered this order", http.StatusBadRequest)
	ErrBackwardStatus   = NewDomainError(ErrCodeInvalidTransition, "Order status can only move forward", http.StatusBadRequest)
	ErrUnknownStatus    = NewDomainError(ErrCodeValidationFailed, "Unknown order status", http.StatusBadRequest)

	ErrInvalidCredentials = NewDomainError(ErrCodeAuthFailed, "Invalid email or password", http.StatusUnauthorized)
	ErrLoginRequired      = NewDomainError(ErrCodeAuthFailed, "Login first to access this resource", http.StatusUnauthorized)
	ErrInvalidToken       = NewDomainError(ErrCodeAuthFailed, "JSON Web Token is invalid. Try Again!!!", http.StatusUnauthorized)
	ErrResetTokenInvalid  = NewDomainError(ErrCodeAuthFailed, "Password reset token is invalid or has been expired", http.StatusBadRequest)
	ErrOldPasswordWrong   = NewDomainError(ErrCodeAuthFailed, "Old Password is incorrect", http.StatusBadRequest)
	ErrPasswordMismatch   = NewDomainError(ErrCodeValidationFailed, "Passwords does not match", http.StatusBadRequest)

	ErrInvalidSignature = NewDomainError(ErrCodeInvalidSignature, "Webhook signature verification failed", http.StatusBadRequest)
)

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) && de.Status != 0 {
		return de.Status
	}
	return http.StatusInternalServerError
}
