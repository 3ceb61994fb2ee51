// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date that encodes as "YYYY-MM-DD" and as null when zero.
type Date struct {
	time.Time
}

// ParseDate parses "YYYY-MM-DD". An RFC 3339 timestamp is accepted and
// truncated to its date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return Date{t}, nil
}

// String returns the date as "YYYY-MM-DD", or "" when zero.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task represents a single task item.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     Date       `json:"due_date"`
	Completed   bool       `json:"completed"`
	Category    *int       `json:"category"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// CategoryID returns the task's category id, or 0 when it has none.
func (t Task) CategoryID() int {
	if t.Category == nil {
		return 0
	}
	return *t.Category
}

// TaskInput carries the editable fields of a task for create and full update.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     Date   `json:"due_date"`
	Category    *int   `json:"category"`
	Completed   *bool  `json:"completed,omitempty"`
}

// Category represents a task category. Names are unique per user.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is the profile of the logged-in account.
type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

// ProfileUpdate is the partial update sent when saving the profile.
type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Credentials are the login form values.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration are the signup form values.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Next != nil && *p.Next != "" }

// HasPrevious reports whether a previous page exists.
func (p Page[T]) HasPrevious() bool { return p.Previous != nil && *p.Previous != "" }

// Completion is the three-way completion filter.
type Completion string

const (
	// All shows every task.
	All Completion = "all"
	// Completed shows completed tasks only.
	Completed Completion = "completed"
	// Pending shows open tasks only.
	Pending Completion = "pending"
)

// ParseCompletion parses a filter name.
func ParseCompletion(s string) (Completion, error) {
	switch c := Completion(strings.ToLower(strings.TrimSpace(s))); c {
	case All, Completed, Pending:
		return c, nil
	case "":
		return All, nil
	default:
		return "", fmt.Errorf("invalid filter: %s (want all, completed or pending)", s)
	}
}

// TaskQuery selects a page of tasks.
type TaskQuery struct {
	Page     int
	PageSize int
	Filter   Completion
	Search   string
	Category int
}
