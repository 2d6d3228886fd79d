package model

import (
	"errors"
	"fmt"
)

// Kinds. Every domain error wraps exactly one of them so callers can classify
// with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrOperationFailed = errors.New("operation failed")
)

var (
	ErrNameRequired  = kind(ErrValidation, "name is required")
	ErrInvalidAmount = kind(ErrValidation, "amount must be a positive number")
	ErrInvalidUID    = kind(ErrValidation, "uid is required")
	ErrInvalidUserID = kind(ErrValidation, "invalid user id")
	ErrInvalidLimit  = kind(ErrValidation, "limit must be a positive integer")

	ErrUIDConflict         = kind(ErrConflict, "uid is already linked to another user")
	ErrGenerationExhausted = kind(ErrConflict, "could not generate a free uid")
	ErrDuplicateRequest    = kind(ErrConflict, "request with this idempotency key is in progress")

	ErrUserNotFound = kind(ErrNotFound, "user not found")
	ErrUIDNotFound  = kind(ErrNotFound, "no user linked to uid")
	ErrNoScans      = kind(ErrNotFound, "no scans recorded")

	ErrInvalidCredentials = kind(ErrUnauthenticated, "invalid credentials")
	ErrUnauthorized       = kind(ErrUnauthenticated, "admin session required")
)

type kindError struct {
	kind error
	msg  string
}

func kind(k error, msg string) error {
	return &kindError{kind: k, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// OperationFailed marks err as an unexpected store or infrastructure failure.
func OperationFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}

