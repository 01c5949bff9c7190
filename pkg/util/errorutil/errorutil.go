package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to clients.
const (
	CodeNotAuthenticated  = "NOT_AUTHENTICATED"
	CodeProfileMissing    = "PROFILE_MISSING"
	CodeUnverified        = "UNVERIFIED"
	CodeNotAuthorized     = "NOT_AUTHORIZED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyDecided    = "ALREADY_DECIDED"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_FAILED"
	CodeConflict          = "CONFLICT"
	CodeTransient         = "TRANSIENT"
	CodeInternal          = "INTERNAL_ERROR"
)

// Gate screens that authentication failures redirect to.
const (
	RedirectLogin          = "/login"
	RedirectRegister       = "/register"
	RedirectAuthorityState = "/authority/status"
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

// Redirect returns the gate screen attached to the error, if any.
func (e *DomainError) Redirect() string {
	if e == nil || e.Details == nil {
		return ""
	}
	if target, ok := e.Details["redirect"].(string); ok {
		return target
	}
	return ""
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewNotAuthenticated(message string) error {
	return NewDomainError(CodeNotAuthenticated, message, http.StatusUnauthorized, map[string]any{
		"redirect": RedirectLogin,
	})
}

func NewProfileMissing(uid string) error {
	return NewDomainError(CodeProfileMissing, "profile not found; registration required", http.StatusForbidden, map[string]any{
		"redirect": RedirectRegister,
		"uid":      uid,
	})
}

// NewUnverified reports an authority whose profile is not yet (or no longer) verified.
// state is "pending" or "rejected".
func NewUnverified(state, reason string) error {
	details := map[string]any{
		"redirect": RedirectAuthorityState + "?state=" + state,
		"state":    state,
	}
	if reason != "" {
		details["reason"] = reason
	}
	return NewDomainError(CodeUnverified, "authority profile is "+state, http.StatusForbidden, details)
}

func NewNotAuthorized(message string, details map[string]any) error {
	return NewDomainError(CodeNotAuthorized, message, http.StatusForbidden, details)
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot move from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewAlreadyDecided(status string) error {
	return NewDomainError(CodeAlreadyDecided, "fund request already "+status, http.StatusConflict,
		map[string]any{"status": status})
}

func NewInvalidAmount(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidAmount, message, http.StatusUnprocessableEntity, details)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewTransient wraps a backend failure the user may retry.
func NewTransient(err error) error {
	return &DomainError{
		Code:       CodeTransient,
		Message:    "temporary failure, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"retryable": true},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
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
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewTransient(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

