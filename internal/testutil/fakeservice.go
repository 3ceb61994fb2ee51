package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskdeck/internal/errs"
	"taskdeck/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu         sync.RWMutex
	tasks      []service.Task // creation order
	categories []service.Category
	user       service.User
	nextTaskID int
	nextCatID  int
	calls      []string

	// Error injection for testing
	LoginErr          error
	RegisterErr       error
	MeErr             error
	UpdateMeErr       error
	DeleteMeErr       error
	ListTasksErr      error
	GetTaskErr        error
	CreateTaskErr     error
	UpdateTaskErr     error
	SetCompletedErr   error
	DeleteTaskErr     error
	ListCategoriesErr error
	CreateCategoryErr error

	// ListTasksHook, when set, runs before ListTasks answers. Tests use it to
	// hold a response back.
	ListTasksHook func(q service.TaskQuery)

	// Tokens is returned by a successful Login.
	Tokens service.TokenPair
}

var _ service.Service = (*FakeService)(nil)

// NewFakeService creates an empty FakeService logged in as "alice".
func NewFakeService() *FakeService {
	return &FakeService{
		nextTaskID: 1,
		nextCatID:  1,
		user: service.User{
			ID:         1,
			Username:   "alice",
			Email:      "alice@example.com",
			DateJoined: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		},
		Tokens: service.TokenPair{Access: "access", Refresh: "refresh"},
	}
}

// AddTask stores a task with the next id.
func (f *FakeService) AddTask(title string, completed bool, category int) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.nextTaskID, Title: title, Completed: completed}
	if category != 0 {
		c := category
		t.Category = &c
	}
	f.nextTaskID++
	f.tasks = append(f.tasks, t)
	return t
}

// AddCategory stores a category with the next id.
func (f *FakeService) AddCategory(name string) service.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := service.Category{ID: f.nextCatID, Name: name}
	f.nextCatID++
	f.categories = append(f.categories, c)
	return c
}

// SetUser replaces the profile returned by Me.
func (f *FakeService) SetUser(u service.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = u
}

// Tasks returns a copy of the stored tasks in creation order.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the names of the methods called so far.
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how often method was called.
func (f *FakeService) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.TokenPair, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return service.TokenPair{}, f.LoginErr
	}
	return f.Tokens, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) error {
	f.record("Register")
	return f.RegisterErr
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.User, error) {
	f.record("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.user, nil
}

// UpdateMe implements service.Service.
func (f *FakeService) UpdateMe(ctx context.Context, upd service.ProfileUpdate) (service.User, error) {
	f.record("UpdateMe")
	if f.UpdateMeErr != nil {
		return service.User{}, f.UpdateMeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.FirstName = upd.FirstName
	f.user.LastName = upd.LastName
	f.user.Email = upd.Email
	return f.user, nil
}

// DeleteMe implements service.Service.
func (f *FakeService) DeleteMe(ctx context.Context) error {
	f.record("DeleteMe")
	return f.DeleteMeErr
}

// ListTasks implements service.Service. Newest tasks come first.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) (service.Page[service.Task], error) {
	f.record("ListTasks")
	if f.ListTasksHook != nil {
		f.ListTasksHook(q)
	}
	if f.ListTasksErr != nil {
		return service.Page[service.Task]{}, f.ListTasksErr
	}

	f.mu.RLock()
	var matched []service.Task
	for i := len(f.tasks) - 1; i >= 0; i-- {
		if matches(f.tasks[i], q) {
			matched = append(matched, f.tasks[i])
		}
	}
	f.mu.RUnlock()

	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > 0 && start >= len(matched) {
		return service.Page[service.Task]{}, errs.ErrNotFound
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	out := service.Page[service.Task]{
		Count:   len(matched),
		Results: append([]service.Task{}, matched[start:end]...),
	}
	if end < len(matched) {
		next := "next"
		out.Next = &next
	}
	if page > 1 {
		prev := "previous"
		out.Previous = &prev
	}
	return out, nil
}

func matches(t service.Task, q service.TaskQuery) bool {
	switch q.Filter {
	case service.Completed:
		if !t.Completed {
			return false
		}
	case service.Pending:
		if t.Completed {
			return false
		}
	}
	if q.Category != 0 && t.CategoryID() != q.Category {
		return false
	}
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), s) && !strings.Contains(strings.ToLower(t.Description), s) {
			return false
		}
	}
	return true
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int) (service.Task, error) {
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, errs.ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:          f.nextTaskID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Category:    in.Category,
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	f.nextTaskID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID != id {
			continue
		}
		t.Title = in.Title
		t.Description = in.Description
		t.DueDate = in.DueDate
		t.Category = in.Category
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
		f.tasks[i] = t
		return t, nil
	}
	return service.Task{}, errs.ErrNotFound
}

// SetTaskCompleted implements service.Service.
func (f *FakeService) SetTaskCompleted(ctx context.Context, id int, completed bool) (service.Task, error) {
	f.record("SetTaskCompleted")
	if f.SetCompletedErr != nil {
		return service.Task{}, f.SetCompletedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Completed = completed
			return f.tasks[i], nil
		}
	}
	return service.Task{}, errs.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// ListCategories implements service.Service.
func (f *FakeService) ListCategories(ctx context.Context) ([]service.Category, error) {
	f.record("ListCategories")
	if f.ListCategoriesErr != nil {
		return nil, f.ListCategoriesErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Category{}, f.categories...), nil
}

// CreateCategory implements service.Service.
func (f *FakeService) CreateCategory(ctx context.Context, name string) (service.Category, error) {
	f.record("CreateCategory")
	if f.CreateCategoryErr != nil {
		return service.Category{}, f.CreateCategoryErr
	}
	f.mu.RLock()
	for _, c := range f.categories {
		if c.Name == name {
			f.mu.RUnlock()
			return service.Category{}, errs.ErrAlreadyExists
		}
	}
	f.mu.RUnlock()
	return f.AddCategory(name), nil
}
