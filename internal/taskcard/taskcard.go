// Package taskcard is the per-task view model: a details view, an edit form
// and a delete confirmation, each opened and closed independently, plus the
// completion toggle.
package taskcard

import (
	"context"
	"errors"

	"taskdeck/internal/service"
	"taskdeck/internal/store"
)

var (
	// ErrNotEditing is returned by Save when the edit form is closed.
	ErrNotEditing = errors.New("task is not being edited")

	// ErrNotConfirmed is returned by Delete before the deletion was confirmed.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)

// Card wraps one task.
type Card struct {
	store *store.Store
	task  service.Task

	details    bool
	editing    bool
	confirming bool
}

// New creates a card for t with every modal closed.
func New(st *store.Store, t service.Task) *Card {
	return &Card{store: st, task: t}
}

// Task returns the task as last known to the card.
func (c *Card) Task() service.Task { return c.task }

// ShowDetails opens the details view.
func (c *Card) ShowDetails() { c.details = true }

// HideDetails closes the details view.
func (c *Card) HideDetails() { c.details = false }

// DetailsOpen reports whether the details view is open.
func (c *Card) DetailsOpen() bool { return c.details }

// Edit opens the edit form.
func (c *Card) Edit() { c.editing = true }

// CancelEdit closes the edit form without saving.
func (c *Card) CancelEdit() { c.editing = false }

// Editing reports whether the edit form is open.
func (c *Card) Editing() bool { return c.editing }

// AskDelete opens the delete confirmation.
func (c *Card) AskDelete() { c.confirming = true }

// CancelDelete closes the delete confirmation.
func (c *Card) CancelDelete() { c.confirming = false }

// ConfirmingDelete reports whether the delete confirmation is open.
func (c *Card) ConfirmingDelete() bool { return c.confirming }

// Toggle flips the completion flag with a single partial update.
func (c *Card) Toggle(ctx context.Context) error {
	t, err := c.store.ToggleTask(ctx, c.task)
	if err != nil {
		return err
	}
	c.task = t
	return nil
}

// Save replaces title, description, due date and category of the task.
// The id and the completion flag are kept. The form closes on success and
// stays open on failure.
func (c *Card) Save(ctx context.Context, in service.TaskInput) error {
	if !c.editing {
		return ErrNotEditing
	}
	completed := c.task.Completed
	in.Completed = &completed

	t, err := c.store.UpdateTask(ctx, c.task.ID, in)
	if err != nil {
		return err
	}
	c.task = t
	c.editing = false
	return nil
}

// Delete removes the task once the confirmation is open.
func (c *Card) Delete(ctx context.Context) error {
	if !c.confirming {
		return ErrNotConfirmed
	}
	if err := c.store.DeleteTask(ctx, c.task.ID); err != nil {
		return err
	}
	c.confirming = false
	return nil
}
