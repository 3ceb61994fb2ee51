// Package dashboard is the view model behind the task list: completion
// filter, category filter, debounced search and pagination over a store.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskdeck/internal/service"
	"taskdeck/internal/store"
)

var (
	// ErrNoNextPage is returned by NextPage on the last page.
	ErrNoNextPage = errors.New("already on the last page")

	// ErrNoPreviousPage is returned by PrevPage on the first page.
	ErrNoPreviousPage = errors.New("already on the first page")
)

// Model holds the dashboard controls and drives fetches on the store.
type Model struct {
	store    *store.Store
	debounce *Debouncer
	logger   *zap.Logger

	// OnSearch is called after a debounced search fetch finished.
	OnSearch func(err error)

	mu       sync.Mutex
	filter   service.Completion
	search   string
	category int
	page     int
}

// New creates a Model in its initial state: all tasks, page 1.
func New(st *store.Store, searchDelay time.Duration, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		store:    st,
		debounce: NewDebouncer(searchDelay),
		logger:   logger,
		filter:   service.All,
		page:     1,
	}
}

// Close cancels a pending search.
func (m *Model) Close() {
	m.debounce.Stop()
}

// Query returns the query the next fetch will use.
func (m *Model) Query() service.TaskQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked()
}

func (m *Model) queryLocked() service.TaskQuery {
	return service.TaskQuery{
		Page:     m.page,
		PageSize: m.store.PageSize(),
		Filter:   m.filter,
		Search:   m.search,
		Category: m.category,
	}
}

// Filter returns the completion filter.
func (m *Model) Filter() service.Completion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// SearchText returns the applied search text.
func (m *Model) SearchText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.search
}

// Category returns the category filter, 0 for none.
func (m *Model) Category() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category
}

// Page returns the current page number.
func (m *Model) Page() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Load fetches the current page, the all-tasks view and the categories.
func (m *Model) Load(ctx context.Context) error {
	if err := m.Refresh(ctx); err != nil {
		return err
	}
	if err := m.store.FetchAllTasks(ctx); err != nil {
		return err
	}
	return m.store.FetchCategories(ctx)
}

// Refresh refetches the current page.
func (m *Model) Refresh(ctx context.Context) error {
	return m.store.FetchTasks(ctx, m.Query())
}

// Apply sets every control at once, as the list command does from its
// flags, and fetches.
func (m *Model) Apply(ctx context.Context, filter service.Completion, search string, category, page int) error {
	if page < 1 {
		page = 1
	}
	m.mu.Lock()
	m.filter = filter
	m.search = search
	m.category = category
	m.page = page
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// SetFilter changes the completion filter. It resets to page 1 and clears
// the search and the category filter.
func (m *Model) SetFilter(ctx context.Context, f service.Completion) error {
	m.debounce.Stop()
	m.mu.Lock()
	m.filter = f
	m.search = ""
	m.category = 0
	m.page = 1
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// SetCategory changes the category filter (0 clears it) and resets to page 1.
func (m *Model) SetCategory(ctx context.Context, id int) error {
	m.mu.Lock()
	m.category = id
	m.page = 1
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// Search applies text after the debounce delay, resetting to page 1.
// Triggers arriving within the delay replace the pending one.
func (m *Model) Search(ctx context.Context, text string) {
	m.debounce.Trigger(func() {
		err := m.SearchNow(ctx, text)
		if err != nil {
			m.logger.Debug("debounced search failed", zap.Error(err))
		}
		if m.OnSearch != nil {
			m.OnSearch(err)
		}
	})
}

// SearchNow applies text immediately, resetting to page 1.
func (m *Model) SearchNow(ctx context.Context, text string) error {
	m.mu.Lock()
	m.search = text
	m.page = 1
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// NextPage moves one page forward keeping every filter.
func (m *Model) NextPage(ctx context.Context) error {
	if !m.store.State().HasNext() {
		return ErrNoNextPage
	}
	return m.GoTo(ctx, m.Page()+1)
}

// PrevPage moves one page back keeping every filter.
func (m *Model) PrevPage(ctx context.Context) error {
	if m.Page() <= 1 {
		return ErrNoPreviousPage
	}
	return m.GoTo(ctx, m.Page()-1)
}

// GoTo fetches page n keeping every filter.
func (m *Model) GoTo(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.page = n
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// PageCount returns the number of pages for the current result count.
func (m *Model) PageCount() int {
	return m.store.State().PageCount(m.store.PageSize())
}

// AfterDelete steps back one page when a delete emptied the last page.
func (m *Model) AfterDelete(ctx context.Context) error {
	count := m.PageCount()
	m.mu.Lock()
	stepBack := m.page > count && m.page > 1
	if stepBack {
		m.page--
	}
	m.mu.Unlock()
	if !stepBack {
		return nil
	}
	return m.Refresh(ctx)
}

// AvailableCategories returns the categories used by at least one known
// task, not every category of the user.
func (m *Model) AvailableCategories() []service.Category {
	return m.store.State().UsedCategories()
}
