// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskdeck/internal/errs"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, not found, ambiguous).
	UserError = 1

	// AuthError indicates a missing, rejected or expired session.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// For maps an error returned by a command to its exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errs.IsAuth(err):
		return AuthError
	case errors.Is(err, errs.ErrInvalidInput),
		errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrAmbiguous),
		errors.Is(err, errs.ErrAlreadyExists):
		return UserError
	default:
		return BackendError
	}
}
