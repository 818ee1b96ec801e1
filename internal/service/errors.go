package service

import (
	"context"
	"errors"

	"smartbin-backend/internal/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAccountDisabled = errors.New("account disabled")
	ErrPersistence     = errors.New("persistence error")
	ErrTimeout         = errors.New("timeout")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// Error carries a user-safe message alongside its kind and cause
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(message string) *Error {
	return newError(ErrValidation, message)
}

func notFoundError(message string) *Error {
	return newError(ErrNotFound, message)
}

func conflictError(message string) *Error {
	return newError(ErrConflict, message)
}

// dbError classifies a database failure and logs it with the operation name.
// Statement text stays in the log; callers only see the message.
func dbError(op string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}

	entry := logger.Log.WithFields(logrus.Fields{"op": op}).WithError(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		entry.Warn("database statement timed out")
		return &Error{Kind: ErrTimeout, Message: "database operation timed out", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Message: "resource already exists", Err: err}
	default:
		entry.Error("database operation failed")
		return &Error{Kind: ErrPersistence, Message: "database operation failed", Err: err}
	}
}

// lookupError maps a missing row to ErrNotFound and anything else through dbError
func lookupError(op, notFoundMessage string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(notFoundMessage)
	}
	return dbError(op, err)
}
