package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskdeck/internal/apiclient"
	"taskdeck/internal/errs"
	"taskdeck/internal/service"
)

// Notifier shows the outcome of a mutation to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Nop is a Notifier that drops every message.
type Nop struct{}

// Success implements Notifier.
func (Nop) Success(string) {}

// Error implements Notifier.
func (Nop) Error(string) {}

// Store owns the cached State and the actions that change it. It is safe for
// concurrent use.
type Store struct {
	svc      service.Service
	notify   Notifier
	logger   *zap.Logger
	pageSize int

	mu    sync.Mutex
	state State
	seq   uint64
}

// New creates a Store. pageSize is sent with every page fetch.
func New(svc service.Service, notify Notifier, logger *zap.Logger, pageSize int) *Store {
	if notify == nil {
		notify = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		svc:      svc,
		notify:   notify,
		logger:   logger,
		pageSize: pageSize,
		state:    Initial(),
	}
}

// PageSize returns the page size used for page fetches.
func (s *Store) PageSize() int { return s.pageSize }

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a to the state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// failed dispatches the failure of an operation. Auth failures were already
// handled by the transport, so they only clear the loading flag.
func (s *Store) failed(err error, record func(error) Action) {
	if errs.IsAuth(err) {
		s.Dispatch(Aborted{})
		return
	}
	s.Dispatch(record(err))
}

func fetchError(err error) Action    { return FetchError{Err: err} }
func mutationError(err error) Action { return MutationError{Err: err} }

// FetchTasks loads one page. Only the latest issued fetch may update the
// state; responses of superseded fetches are dropped.
func (s *Store) FetchTasks(ctx context.Context, q service.TaskQuery) error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = s.pageSize
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = Reduce(s.state, FetchStart{})
	s.mu.Unlock()

	page, err := s.svc.ListTasks(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.logger.Debug("dropping stale task page", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return nil
	}
	if err != nil {
		if errs.IsAuth(err) {
			s.state = Reduce(s.state, Aborted{})
		} else {
			s.state = Reduce(s.state, FetchError{Err: err})
		}
		return err
	}
	s.state = Reduce(s.state, FetchSuccess{Page: page, Number: q.Page})
	return nil
}

// FetchAllTasks loads the all-tasks view with one large page.
func (s *Store) FetchAllTasks(ctx context.Context) error {
	page, err := s.svc.ListTasks(ctx, service.TaskQuery{Page: 1, PageSize: apiclient.AllTasksPageSize})
	if err != nil {
		s.failed(err, fetchError)
		return err
	}
	s.Dispatch(AllTasksLoaded{Tasks: page.Results})
	return nil
}

// FetchCategories loads the category list.
func (s *Store) FetchCategories(ctx context.Context) error {
	cats, err := s.svc.ListCategories(ctx)
	if err != nil {
		s.failed(err, fetchError)
		return err
	}
	s.Dispatch(CategoriesSet{Categories: cats})
	return nil
}

// AddTask creates a task. The error is returned so a form can stay open.
func (s *Store) AddTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	s.Dispatch(MutationStart{})
	t, err := s.svc.CreateTask(ctx, in)
	if err != nil {
		s.failed(err, mutationError)
		if !errs.IsAuth(err) {
			s.notify.Error(fmt.Sprintf("Error adding task: %v", err))
		}
		return service.Task{}, err
	}
	s.Dispatch(TaskAdded{Task: t})
	s.notify.Success("Task added successfully!")
	return t, nil
}

// UpdateTask replaces the editable fields of task id.
func (s *Store) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	s.Dispatch(MutationStart{})
	t, err := s.svc.UpdateTask(ctx, id, in)
	if err != nil {
		s.failed(err, mutationError)
		if !errs.IsAuth(err) {
			s.notify.Error("Failed to update task.")
		}
		return service.Task{}, err
	}
	s.Dispatch(TaskUpdated{Task: t})
	s.notify.Success("Task updated successfully!")
	return t, nil
}

// ToggleTask flips the completion flag of t.
func (s *Store) ToggleTask(ctx context.Context, t service.Task) (service.Task, error) {
	s.Dispatch(MutationStart{})
	updated, err := s.svc.SetTaskCompleted(ctx, t.ID, !t.Completed)
	if err != nil {
		s.failed(err, mutationError)
		if !errs.IsAuth(err) {
			s.notify.Error("Failed to update task status.")
		}
		return service.Task{}, err
	}
	s.Dispatch(TaskUpdated{Task: updated})
	if updated.Completed {
		s.notify.Success("Task marked as completed")
	} else {
		s.notify.Success("Task marked as pending")
	}
	return updated, nil
}

// DeleteTask deletes task id.
func (s *Store) DeleteTask(ctx context.Context, id int) error {
	s.Dispatch(MutationStart{})
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		s.failed(err, mutationError)
		if !errs.IsAuth(err) {
			s.notify.Error("Failed to delete task.")
		}
		return err
	}
	s.Dispatch(TaskDeleted{ID: id})
	s.notify.Success("Task deleted successfully!")
	return nil
}

// AddCategory creates a category.
func (s *Store) AddCategory(ctx context.Context, name string) (service.Category, error) {
	s.Dispatch(MutationStart{})
	c, err := s.svc.CreateCategory(ctx, name)
	if err != nil {
		s.failed(err, mutationError)
		if !errs.IsAuth(err) {
			s.notify.Error(fmt.Sprintf("Failed to add category: %v", err))
		}
		return service.Category{}, err
	}
	s.Dispatch(CategoryAdded{Category: c})
	s.notify.Success(fmt.Sprintf("Category %q added.", c.Name))
	return c, nil
}

// Reset drops everything cached, for logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = Initial()
}
