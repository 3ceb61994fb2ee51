// Package store caches tasks, categories and pagination for the views and
// folds API results into that cache through a pure reducer.
package store

import (
	"taskdeck/internal/service"
)

// State is an immutable snapshot of the cache. Tasks is the single table of
// task records; PageIDs and AllIDs are ordered views into it.
type State struct {
	Tasks      map[int]service.Task
	PageIDs    []int
	AllIDs     []int
	Categories []service.Category

	Count    int
	Next     string
	Previous string
	Page     int

	Loading bool
	Err     error
}

// Action is a state transition understood by Reduce.
type Action interface {
	isAction()
}

type (
	// FetchStart marks a page fetch in progress.
	FetchStart struct{}

	// FetchSuccess replaces the current page.
	FetchSuccess struct {
		Page   service.Page[service.Task]
		Number int
	}

	// FetchError records a failed fetch.
	FetchError struct{ Err error }

	// Aborted clears the loading flag without recording an error.
	Aborted struct{}

	// AllTasksLoaded replaces the all-tasks view.
	AllTasksLoaded struct{ Tasks []service.Task }

	// TaskAdded prepends a new task to both views.
	TaskAdded struct{ Task service.Task }

	// TaskUpdated replaces a task record.
	TaskUpdated struct{ Task service.Task }

	// TaskDeleted removes a task from the table and both views.
	TaskDeleted struct{ ID int }

	// CategoriesSet replaces the category list.
	CategoriesSet struct{ Categories []service.Category }

	// CategoryAdded appends a category.
	CategoryAdded struct{ Category service.Category }

	// MutationStart marks a create, update or delete in progress.
	MutationStart struct{}

	// MutationError records a failed mutation.
	MutationError struct{ Err error }
)

func (FetchStart) isAction()     {}
func (FetchSuccess) isAction()   {}
func (FetchError) isAction()     {}
func (Aborted) isAction()        {}
func (AllTasksLoaded) isAction() {}
func (TaskAdded) isAction()      {}
func (TaskUpdated) isAction()    {}
func (TaskDeleted) isAction()    {}
func (CategoriesSet) isAction()  {}
func (CategoryAdded) isAction()  {}
func (MutationStart) isAction()  {}
func (MutationError) isAction()  {}

// Initial returns the empty state.
func Initial() State {
	return State{Tasks: map[int]service.Task{}, Page: 1}
}

// Reduce returns the state after applying a. The input state is never modified.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a := a.(type) {
	case FetchStart:
		next.Loading = true
		next.Err = nil

	case FetchSuccess:
		next.PageIDs = next.PageIDs[:0]
		for _, t := range a.Page.Results {
			next.Tasks[t.ID] = t
			next.PageIDs = append(next.PageIDs, t.ID)
		}
		next.Count = a.Page.Count
		next.Next = deref(a.Page.Next)
		next.Previous = deref(a.Page.Previous)
		next.Page = a.Number
		next.Loading = false

	case FetchError:
		next.Err = a.Err
		next.Loading = false

	case Aborted:
		next.Loading = false

	case AllTasksLoaded:
		next.AllIDs = next.AllIDs[:0]
		for _, t := range a.Tasks {
			next.Tasks[t.ID] = t
			next.AllIDs = append(next.AllIDs, t.ID)
		}

	case TaskAdded:
		next.Tasks[a.Task.ID] = a.Task
		next.PageIDs = prepend(next.PageIDs, a.Task.ID)
		next.AllIDs = prepend(next.AllIDs, a.Task.ID)
		next.Count++
		next.Loading = false

	case TaskUpdated:
		if _, ok := next.Tasks[a.Task.ID]; ok {
			next.Tasks[a.Task.ID] = a.Task
		}
		next.Loading = false

	case TaskDeleted:
		delete(next.Tasks, a.ID)
		next.PageIDs = remove(next.PageIDs, a.ID)
		next.AllIDs = remove(next.AllIDs, a.ID)
		if next.Count > 0 {
			next.Count--
		}
		next.Loading = false

	case CategoriesSet:
		next.Categories = append(next.Categories[:0], a.Categories...)

	case CategoryAdded:
		next.Categories = append(next.Categories, a.Category)
		next.Loading = false

	case MutationStart:
		next.Loading = true

	case MutationError:
		next.Err = a.Err
		next.Loading = false
	}

	next.prune()
	return next
}

// clone deep-copies the table and the slices so the result can be mutated freely.
func (s State) clone() State {
	out := s
	out.Tasks = make(map[int]service.Task, len(s.Tasks))
	for id, t := range s.Tasks {
		out.Tasks[id] = t
	}
	out.PageIDs = append([]int(nil), s.PageIDs...)
	out.AllIDs = append([]int(nil), s.AllIDs...)
	out.Categories = append([]service.Category(nil), s.Categories...)
	return out
}

// prune drops table entries no view refers to.
func (s *State) prune() {
	keep := make(map[int]bool, len(s.PageIDs)+len(s.AllIDs))
	for _, id := range s.PageIDs {
		keep[id] = true
	}
	for _, id := range s.AllIDs {
		keep[id] = true
	}
	for id := range s.Tasks {
		if !keep[id] {
			delete(s.Tasks, id)
		}
	}
}

func prepend(ids []int, id int) []int {
	out := make([]int, 0, len(ids)+1)
	out = append(out, id)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func remove(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PageTasks returns the tasks of the current page in server order.
func (s State) PageTasks() []service.Task {
	return s.lookup(s.PageIDs)
}

// AllTasks returns the tasks of the last all-tasks fetch, including later
// local additions.
func (s State) AllTasks() []service.Task {
	return s.lookup(s.AllIDs)
}

func (s State) lookup(ids []int) []service.Task {
	out := make([]service.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.Tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Task returns a cached task.
func (s State) Task(id int) (service.Task, bool) {
	t, ok := s.Tasks[id]
	return t, ok
}

// HasNext reports whether the server announced a next page.
func (s State) HasNext() bool { return s.Next != "" }

// HasPrevious reports whether the server announced a previous page.
func (s State) HasPrevious() bool { return s.Previous != "" }

// PageCount returns ceil(Count/pageSize), at least 1.
func (s State) PageCount(pageSize int) int {
	if pageSize < 1 || s.Count == 0 {
		return 1
	}
	return (s.Count + pageSize - 1) / pageSize
}

// UsedCategories returns, in category-list order, the categories referenced
// by at least one task of the all-tasks view.
func (s State) UsedCategories() []service.Category {
	used := make(map[int]bool)
	for _, t := range s.AllTasks() {
		if id := t.CategoryID(); id != 0 {
			used[id] = true
		}
	}
	var out []service.Category
	for _, c := range s.Categories {
		if used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// CategoryName returns the name of category id, or "" when unknown.
func (s State) CategoryName(id int) string {
	for _, c := range s.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Stats counts the all-tasks view by completion.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// Stats returns completion counts of the all-tasks view.
func (s State) Stats() Stats {
	var st Stats
	for _, t := range s.AllTasks() {
		st.Total++
		if t.Completed {
			st.Completed++
		} else {
			st.Pending++
		}
	}
	return st
}
