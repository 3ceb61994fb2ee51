package commands

import (
	"context"
	"strings"

	"taskdeck/internal/forms"
	"taskdeck/internal/service"
)

// loadTask returns the task with id, preferring the store's cache.
func loadTask(ctx context.Context, env *Env, id int) (service.Task, error) {
	if t, ok := env.Store.State().Task(id); ok {
		return t, nil
	}
	return env.Service.GetTask(ctx, id)
}

// categories returns the category list, fetching it once per run.
func categories(ctx context.Context, env *Env) ([]service.Category, error) {
	if cats := env.Store.State().Categories; len(cats) > 0 {
		return cats, nil
	}
	if err := env.Store.FetchCategories(ctx); err != nil {
		return nil, err
	}
	return env.Store.State().Categories, nil
}

// resolveCategory finds a category by id or name.
func resolveCategory(ctx context.Context, env *Env, value string) (service.Category, error) {
	cats, err := categories(ctx, env)
	if err != nil {
		return service.Category{}, err
	}
	return forms.ResolveCategory(value, cats)
}

// categoryName returns the display name of the task's category, or "".
func categoryName(env *Env, t service.Task) string {
	if t.Category == nil {
		return ""
	}
	return env.Store.State().CategoryName(*t.Category)
}

// categoriesFor fetches the categories only when a category value needs
// resolving.
func categoriesFor(ctx context.Context, env *Env, value string) ([]service.Category, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return categories(ctx, env)
}
