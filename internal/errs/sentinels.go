// Package errs contains sentinel errors shared by the client layers so commands can map them to exit codes.
package errs

import "errors"

var (
	// ErrUnauthorized indicates the backend rejected the request credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates the refresh exchange failed and the session was cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotLoggedIn indicates no valid session is stored locally.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous indicates a name matched more than one entity.
	ErrAmbiguous = errors.New("ambiguous")

	// ErrAlreadyExists indicates a unique name is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates input rejected by local validation or by the backend with 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable indicates the circuit breaker is open.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// IsAuth reports whether err means the caller has to log in again.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotLoggedIn)
}
