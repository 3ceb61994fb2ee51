package taskcard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/service"
	"taskdeck/internal/store"
	"taskdeck/internal/taskcard"
	"taskdeck/internal/testutil"
)

func TestCard_ModalsAreIndependent(t *testing.T) {
	c := taskcard.New(nil, service.Task{ID: 1})

	c.ShowDetails()
	c.Edit()
	c.AskDelete()
	assert.True(t, c.DetailsOpen())
	assert.True(t, c.Editing())
	assert.True(t, c.ConfirmingDelete())

	c.CancelEdit()
	assert.True(t, c.DetailsOpen())
	assert.False(t, c.Editing())
	assert.True(t, c.ConfirmingDelete())

	c.HideDetails()
	c.CancelDelete()
	assert.False(t, c.DetailsOpen())
	assert.False(t, c.ConfirmingDelete())
}

func TestCard_ToggleUsesPartialUpdate(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("a", false, 0)
	c := taskcard.New(store.New(svc, nil, nil, 10), task)

	require.NoError(t, c.Toggle(context.Background()))
	assert.True(t, c.Task().Completed)
	assert.Equal(t, []string{"SetTaskCompleted"}, svc.Calls())

	require.NoError(t, c.Toggle(context.Background()))
	assert.False(t, c.Task().Completed)
}

func TestCard_SavePreservesIDAndCompletion(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("a", true, 0)
	task := svc.Tasks()[0]
	c := taskcard.New(store.New(svc, nil, nil, 10), task)

	err := c.Save(context.Background(), service.TaskInput{Title: "b"})
	assert.ErrorIs(t, err, taskcard.ErrNotEditing)

	c.Edit()
	require.NoError(t, c.Save(context.Background(), service.TaskInput{Title: "b", Description: "desc"}))
	assert.False(t, c.Editing())

	got := svc.Tasks()[0]
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "b", got.Title)
	assert.Equal(t, "desc", got.Description)
	assert.True(t, got.Completed)
}

func TestCard_SaveFailureKeepsFormOpen(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("a", false, 0)
	svc.UpdateTaskErr = errors.New("status 500: internal server error")
	c := taskcard.New(store.New(svc, nil, nil, 10), task)

	c.Edit()
	require.Error(t, c.Save(context.Background(), service.TaskInput{Title: "b"}))
	assert.True(t, c.Editing())
	assert.Equal(t, "a", c.Task().Title)
}

func TestCard_DeleteNeedsConfirmation(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("a", false, 0)
	c := taskcard.New(store.New(svc, nil, nil, 10), task)

	assert.ErrorIs(t, c.Delete(context.Background()), taskcard.ErrNotConfirmed)
	assert.Len(t, svc.Tasks(), 1)

	c.AskDelete()
	require.NoError(t, c.Delete(context.Background()))
	assert.Empty(t, svc.Tasks())
	assert.False(t, c.ConfirmingDelete())
}
