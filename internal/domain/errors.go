package domain

import "net/http"

type ErrorCode string

const (
	ErrorCodeValidation       ErrorCode = "VALIDATION"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeConflictingState ErrorCode = "CONFLICTING_STATE"
	ErrorCodeTerminalState    ErrorCode = "TERMINAL_STATE"
	ErrorCodeTransient        ErrorCode = "TRANSIENT_COLLABORATOR"
	ErrorCodePermanent        ErrorCode = "PERMANENT_COLLABORATOR"
	ErrorCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrorCodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
)

// DomainError carries a stable error code and the HTTP status the API layer
// should answer with. Handlers unwrap it with errors.As in a single place.
type DomainError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
}

func (e *DomainError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeValidation, Message: msg, HTTPStatus: http.StatusBadRequest}
}

func NewNotFoundError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeNotFound, Message: msg, HTTPStatus: http.StatusNotFound}
}

func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeConflictingState, Message: msg, HTTPStatus: http.StatusConflict}
}

// NewTerminalStateError signals a transition attempt from a terminal review
// status. Distinct from conflict so callers can tell "re-fetch and retry"
// apart from "never retry".
func NewTerminalStateError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeTerminalState, Message: msg, HTTPStatus: http.StatusConflict}
}

func NewTransientError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeTransient, Message: msg, HTTPStatus: http.StatusBadGateway}
}

func NewPermanentError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodePermanent, Message: msg, HTTPStatus: http.StatusBadGateway}
}
