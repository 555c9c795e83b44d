package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewConfigInvalid signals a missing or unresolvable workspace setting.
func NewConfigInvalid(message string, details map[string]any) error {
	return NewDomainError("CONFIG_INVALID", message, http.StatusUnprocessableEntity, details)
}

// NewNotConfigured signals an incomplete workspace setup.
func NewNotConfigured(missing []string) error {
	return NewDomainError("NOT_CONFIGURED", "workspace is not fully configured", http.StatusConflict, map[string]any{"missing": missing})
}

// NewLimitReached signals a policy rejection on open-ticket counts.
func NewLimitReached(ticketType string, limit int) error {
	return NewDomainError("LIMIT_REACHED", fmt.Sprintf("maximum of %d open %s tickets reached", limit, ticketType), http.StatusConflict, map[string]any{
		"ticket_type": ticketType,
		"limit":       limit,
	})
}

// NewPermissionDenied signals the actor may not perform the operation.
func NewPermissionDenied(message string) error {
	return NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, nil)
}

// NewPlatformForbidden signals the acting principal lacks rights on the
// underlying platform resource.
func NewPlatformForbidden(operation string, err error) error {
	return &DomainError{
		Code:       "PLATFORM_FORBIDDEN",
		Message:    fmt.Sprintf("platform denied %s", operation),
		HTTPStatus: http.StatusForbidden,
		Err:        err,
	}
}

// NewTimeout signals an expired conversational wait.
func NewTimeout(stage string) error {
	return NewDomainError("TIMEOUT", fmt.Sprintf("timed out waiting at %s", stage), http.StatusRequestTimeout, map[string]any{"stage": stage})
}

// NewRecordMalformed signals a review record without a parseable subject id.
func NewRecordMalformed(message string) error {
	return NewDomainError("RECORD_MALFORMED", message, http.StatusUnprocessableEntity, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
