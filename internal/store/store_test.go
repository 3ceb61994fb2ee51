package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/errs"
	"taskdeck/internal/service"
	"taskdeck/internal/store"
	"taskdeck/internal/testutil"
)

type notes struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (n *notes) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, msg)
}

func (n *notes) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func newStore(svc *testutil.FakeService) (*store.Store, *notes) {
	n := &notes{}
	return store.New(svc, n, nil, 10), n
}

func loaded(t *testing.T, svc *testutil.FakeService) (*store.Store, *notes) {
	t.Helper()
	st, n := newStore(svc)
	ctx := context.Background()
	require.NoError(t, st.FetchTasks(ctx, service.TaskQuery{Page: 1}))
	require.NoError(t, st.FetchAllTasks(ctx))
	require.NoError(t, st.FetchCategories(ctx))
	return st, n
}

func taskIDs(tasks []service.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestStore_AddTaskUpdatesBothViews(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("first", false, 0)
	st, n := loaded(t, svc)
	before := st.State()

	created, err := st.AddTask(context.Background(), service.TaskInput{Title: "second"})
	require.NoError(t, err)

	after := st.State()
	assert.Contains(t, taskIDs(after.PageTasks()), created.ID)
	assert.Contains(t, taskIDs(after.AllTasks()), created.ID)
	assert.Equal(t, before.Count+1, after.Count)
	assert.False(t, after.Loading)
	assert.Equal(t, []string{"Task added successfully!"}, n.success)
}

func TestStore_AddTaskFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("status 400: title: This field may not be blank.")
	st, n := loaded(t, svc)

	_, err := st.AddTask(context.Background(), service.TaskInput{})
	require.Error(t, err)
	assert.Equal(t, []string{"Error adding task: status 400: title: This field may not be blank."}, n.failures)
	assert.Equal(t, err, st.State().Err)
	assert.Equal(t, 0, st.State().Count)
}

func TestStore_DeleteTaskUpdatesBothViews(t *testing.T) {
	svc := testutil.NewFakeService()
	a := svc.AddTask("a", false, 0)
	svc.AddTask("b", false, 0)
	st, n := loaded(t, svc)
	before := st.State()

	require.NoError(t, st.DeleteTask(context.Background(), a.ID))

	after := st.State()
	assert.NotContains(t, taskIDs(after.PageTasks()), a.ID)
	assert.NotContains(t, taskIDs(after.AllTasks()), a.ID)
	assert.Equal(t, before.Count-1, after.Count)
	assert.Equal(t, []string{"Task deleted successfully!"}, n.success)
}

func TestStore_ToggleTask(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("a", false, 0)
	st, n := loaded(t, svc)

	updated, err := st.ToggleTask(context.Background(), task)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	got, ok := st.State().Task(task.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)

	_, err = st.ToggleTask(context.Background(), updated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Task marked as completed", "Task marked as pending"}, n.success)
	assert.Equal(t, 2, svc.CallCount("SetTaskCompleted"))
	assert.Equal(t, 0, svc.CallCount("UpdateTask"))
}

func TestStore_UpdateTaskFailureNotifies(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("a", false, 0)
	svc.UpdateTaskErr = errors.New("status 500: internal server error")
	st, n := loaded(t, svc)

	_, err := st.UpdateTask(context.Background(), task.ID, service.TaskInput{Title: "b"})
	require.Error(t, err)
	assert.Equal(t, []string{"Failed to update task."}, n.failures)
	got, _ := st.State().Task(task.ID)
	assert.Equal(t, "a", got.Title)
}

func TestStore_AuthErrorsAreNotRecorded(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false, 0)
	st, n := loaded(t, svc)

	svc.ListTasksErr = fmt.Errorf("%w: refresh rejected", errs.ErrSessionExpired)
	err := st.FetchTasks(context.Background(), service.TaskQuery{Page: 1})
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
	assert.Nil(t, st.State().Err)
	assert.False(t, st.State().Loading)

	svc.DeleteTaskErr = errs.ErrUnauthorized
	err = st.DeleteTask(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Nil(t, st.State().Err)
	assert.Empty(t, n.failures)
}

func TestStore_FetchErrorRecorded(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("connection refused")
	st, _ := newStore(svc)

	err := st.FetchTasks(context.Background(), service.TaskQuery{Page: 1})
	require.Error(t, err)
	assert.EqualError(t, st.State().Err, "connection refused")
	assert.False(t, st.State().Loading)
}

func TestStore_FetchTasksSendsQuery(t *testing.T) {
	svc := testutil.NewFakeService()
	var got service.TaskQuery
	svc.ListTasksHook = func(q service.TaskQuery) { got = q }
	st, _ := newStore(svc)

	require.NoError(t, st.FetchTasks(context.Background(), service.TaskQuery{Page: 2, Filter: service.Pending, Search: "milk", Category: 3}))
	assert.Equal(t, service.TaskQuery{Page: 2, PageSize: 10, Filter: service.Pending, Search: "milk", Category: 3}, got)

	require.NoError(t, st.FetchAllTasks(context.Background()))
	assert.Equal(t, service.TaskQuery{Page: 1, PageSize: 100}, got)
}

func TestStore_StaleFetchIsDropped(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("milk", false, 0)
	svc.AddTask("bread", false, 0)

	release := make(chan struct{})
	entered := make(chan struct{})
	svc.ListTasksHook = func(q service.TaskQuery) {
		if q.Search == "mi" {
			close(entered)
			<-release
		}
	}
	st, _ := newStore(svc)
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- st.FetchTasks(ctx, service.TaskQuery{Page: 1, Search: "mi"}) }()
	<-entered

	require.NoError(t, st.FetchTasks(ctx, service.TaskQuery{Page: 1, Search: "bread"}))
	close(release)
	require.NoError(t, <-done)

	page := st.State().PageTasks()
	require.Len(t, page, 1)
	assert.Equal(t, "bread", page[0].Title)
}

func TestStore_AddCategory(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddCategory("Work")
	st, n := loaded(t, svc)

	c, err := st.AddCategory(context.Background(), "Home")
	require.NoError(t, err)
	assert.Equal(t, "Home", c.Name)
	assert.Len(t, st.State().Categories, 2)
	assert.Equal(t, []string{`Category "Home" added.`}, n.success)

	_, err = st.AddCategory(context.Background(), "Home")
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	assert.Len(t, n.failures, 1)
}

func TestStore_Reset(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", false, 0)
	st, _ := loaded(t, svc)

	st.Reset()
	s := st.State()
	assert.Empty(t, s.PageTasks())
	assert.Empty(t, s.AllTasks())
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 1, s.Page)
}
