package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrBadRequest         = errors.New("bad request")
)

// Error is a client-facing failure. Its message is safe to return in a
// response body; Unwrap yields the sentinel that decides the status code.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// notFound maps a missing row to ErrNotFound and passes other errors through.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, msg)
	}
	return err
}

func conflict(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newError(ErrConflict, msg)
	}
	return err
}

// ownerGone maps a write whose owning user no longer exists to ErrUnauthorized.
// A token can outlive its user when sessions are stateless.
func ownerGone(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return newError(ErrUnauthorized, "Could not validate credentials")
	}
	return err
}

var errNoPermission = newError(ErrForbidden, "Not enough permissions")
