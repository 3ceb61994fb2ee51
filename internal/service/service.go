package service

import "context"

// Service defines the interface for task backend operations.
// All REST calls go through this interface; commands and the store never
// build HTTP requests themselves.
type Service interface {
	// Login exchanges credentials for an access/refresh token pair.
	Login(ctx context.Context, creds Credentials) (TokenPair, error)

	// Register creates a new account. It does not log in.
	Register(ctx context.Context, reg Registration) error

	// Me returns the profile of the current user.
	Me(ctx context.Context) (User, error)

	// UpdateMe patches first name, last name and email.
	UpdateMe(ctx context.Context, upd ProfileUpdate) (User, error)

	// DeleteMe deletes the current account.
	DeleteMe(ctx context.Context) error

	// ListTasks returns one page of tasks matching q.
	ListTasks(ctx context.Context, q TaskQuery) (Page[Task], error)

	// GetTask returns a task by id.
	GetTask(ctx context.Context, id int) (Task, error)

	// CreateTask creates a task and returns it as stored.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask replaces the editable fields of a task.
	UpdateTask(ctx context.Context, id int, in TaskInput) (Task, error)

	// SetTaskCompleted patches only the completion flag.
	SetTaskCompleted(ctx context.Context, id int, completed bool) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int) error

	// ListCategories returns every category of the user.
	ListCategories(ctx context.Context) ([]Category, error)

	// CreateCategory creates a category.
	CreateCategory(ctx context.Context, name string) (Category, error)
}
