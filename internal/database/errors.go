package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a referenced booking or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateResponse is returned when a responder already answered a
	// booking. First response wins; callers treat this as informational.
	ErrDuplicateResponse = errors.New("duplicate response")

	// ErrDuplicateUsername is returned on a registration collision.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrInvalidInput is returned for malformed or out-of-range input,
	// rejected before persistence.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRole is returned when a responder's role is not requested
	// by the booking, or a role check fails.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidCredentials is returned by authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
