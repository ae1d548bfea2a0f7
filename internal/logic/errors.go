package logic

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorKind classifies failures for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindExternal
)

// Error is a business error with a message safe to show to callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so sentinel errors work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

func external(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Message: msg, Err: err}
}

var (
	ErrUserNotFound       = notFound("User not found")
	ErrWorkerNotFound     = notFound("Worker not found")
	ErrTaskNotFound       = notFound("Task not found")
	ErrPayoutNotFound     = notFound("Payout not found")
	ErrAlreadySubmitted   = &Error{Kind: KindConflict, Message: "You have already submitted for this task"}
	ErrPayoutInProgress   = &Error{Kind: KindConflict, Message: "A payout is already in progress"}
	ErrNoPendingBalance   = validation("No pending balance to payout")
	ErrPayoutNotRetryable = validation("Payout cannot be retried")
	ErrInvalidSignature   = unauthorized("Invalid signature")
	ErrMessageMismatch    = unauthorized("Message does not match the current challenge")
	ErrLegacySignInOff    = unauthorized("Wallet address sign-in is disabled")
)

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// isUniqueViolation recognises a unique-constraint failure from postgres or sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
