package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
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

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewForbiddenRole signals the caller's role may never invoke the operation.
func NewForbiddenRole(message string) error {
	return NewDomainError("FORBIDDEN_ROLE", message, http.StatusForbidden, nil)
}

// NewForbiddenActor signals the role is allowed but this caller is not.
func NewForbiddenActor(message string) error {
	return NewDomainError("FORBIDDEN_ACTOR", message, http.StatusForbidden, nil)
}

// NewInvalidTransition signals an illegal status change.
func NewInvalidTransition(current, next string) error {
	return NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("invalid status transition from %s to %s", current, next),
		http.StatusConflict,
		map[string]any{"current": current, "requested": next})
}

func NewNotTeamMember(message string) error {
	return NewDomainError("NOT_TEAM_MEMBER", message, http.StatusForbidden, nil)
}

func NewNotAssignedActor(message string) error {
	return NewDomainError("NOT_ASSIGNED_ACTOR", message, http.StatusForbidden, nil)
}

// NewInvalidState covers non-status preconditions, e.g. feedback before completion.
func NewInvalidState(message string) error {
	return NewDomainError("INVALID_STATE", message, http.StatusBadRequest, nil)
}

func NewNoPendingEdit(requestID string) error {
	return NewDomainError("NO_PENDING_EDIT", "no pending edit to resolve",
		http.StatusBadRequest, map[string]any{"request_id": requestID})
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
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
