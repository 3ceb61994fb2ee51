// Package profile is the view model of the account page: the cached user,
// an edit mode for name and email, account deletion and task statistics.
package profile

import (
	"context"
	"errors"

	"taskdeck/internal/errs"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

var (
	// ErrNotEditing is returned by Save outside edit mode.
	ErrNotEditing = errors.New("profile is not being edited")

	// ErrNotConfirmed is returned by DeleteAccount before confirmation.
	ErrNotConfirmed = errors.New("account deletion not confirmed")
)

// View holds the profile page state.
type View struct {
	svc     service.Service
	store   *store.Store
	session *session.Session
	notify  store.Notifier

	user       *service.User
	editing    bool
	confirming bool
}

// New creates a View.
func New(svc service.Service, st *store.Store, sess *session.Session, notify store.Notifier) *View {
	if notify == nil {
		notify = store.Nop{}
	}
	return &View{svc: svc, store: st, session: sess, notify: notify}
}

// User returns the current user, fetching it on first use only.
func (v *View) User(ctx context.Context) (service.User, error) {
	if v.user != nil {
		return *v.user, nil
	}
	u, err := v.svc.Me(ctx)
	if err != nil {
		return service.User{}, err
	}
	v.user = &u
	return u, nil
}

// LoadStats fetches the all-tasks view the statistics are computed from.
func (v *View) LoadStats(ctx context.Context) (store.Stats, error) {
	if err := v.store.FetchAllTasks(ctx); err != nil {
		return store.Stats{}, err
	}
	return v.store.State().Stats(), nil
}

// Edit makes name and email writable.
func (v *View) Edit() { v.editing = true }

// CancelEdit leaves edit mode without saving.
func (v *View) CancelEdit() { v.editing = false }

// Editing reports whether edit mode is on.
func (v *View) Editing() bool { return v.editing }

// Save sends first name, last name and email and leaves edit mode.
func (v *View) Save(ctx context.Context, upd service.ProfileUpdate) (service.User, error) {
	if !v.editing {
		return service.User{}, ErrNotEditing
	}
	u, err := v.svc.UpdateMe(ctx, upd)
	if err != nil {
		if !errs.IsAuth(err) {
			v.notify.Error("Failed to update profile.")
		}
		return service.User{}, err
	}
	v.user = &u
	v.editing = false
	v.notify.Success("Profile updated successfully!")
	return u, nil
}

// AskDelete opens the account deletion confirmation.
func (v *View) AskDelete() { v.confirming = true }

// CancelDelete closes the confirmation.
func (v *View) CancelDelete() { v.confirming = false }

// DeleteAccount deletes the account once confirmed, then drops the session
// and every cached task so the user has to log in again.
func (v *View) DeleteAccount(ctx context.Context) error {
	if !v.confirming {
		return ErrNotConfirmed
	}
	if err := v.svc.DeleteMe(ctx); err != nil {
		if !errs.IsAuth(err) {
			v.notify.Error("Failed to delete account.")
		}
		return err
	}
	v.confirming = false
	v.user = nil
	v.store.Reset()
	if err := v.session.Clear(); err != nil {
		return err
	}
	v.notify.Success("Account deleted successfully!")
	return nil
}
