package session

import (
	"errors"

	"taskdeck/internal/errs"
)

// Access describes which sessions may run a command.
type Access int

const (
	// Public commands run regardless of the session (help, version).
	Public Access = iota

	// Any commands run regardless of validity but may use the session (logout).
	Any

	// Protected commands need a locally valid access token, or a refresh
	// token the transport can exchange on the first 401.
	Protected

	// GuestOnly commands are for visitors without a valid session (login, signup).
	GuestOnly
)

// ErrAlreadyLoggedIn is returned by Check for GuestOnly commands when the session is valid.
var ErrAlreadyLoggedIn = errors.New("already logged in")

// Check applies the guard for access to s.
// Protected without a valid access token and without a refresh token
// returns errs.ErrNotLoggedIn.
// GuestOnly with a valid session returns ErrAlreadyLoggedIn.
func Check(access Access, s *Session) error {
	switch access {
	case Protected:
		if !s.Authenticated() && s.RefreshToken() == "" {
			return errs.ErrNotLoggedIn
		}
	case GuestOnly:
		if s.Authenticated() {
			return ErrAlreadyLoggedIn
		}
	}
	return nil
}
