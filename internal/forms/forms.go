// Package forms validates login, signup, task and profile input before it is
// sent to the backend.
package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"taskdeck/internal/errs"
	"taskdeck/internal/service"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldError is a validation failure of one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects the field errors of one form in field order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Is makes every validation failure match errs.ErrInvalidInput.
func (e Errors) Is(target error) bool {
	return target == errs.ErrInvalidInput
}

func (e *Errors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Login validates the login form.
func Login(username, password string) (service.Credentials, error) {
	var fe Errors
	username = strings.TrimSpace(username)
	if username == "" {
		fe.add("username", "Username is required")
	}
	checkPassword(&fe, password)
	if err := fe.err(); err != nil {
		return service.Credentials{}, err
	}
	return service.Credentials{Username: username, Password: password}, nil
}

// Signup validates the signup form.
func Signup(username, email, password string) (service.Registration, error) {
	var fe Errors
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		fe.add("username", "Username is required")
	}
	checkEmail(&fe, email)
	checkPassword(&fe, password)
	if err := fe.err(); err != nil {
		return service.Registration{}, err
	}
	return service.Registration{Username: username, Email: email, Password: password}, nil
}

// Profile validates the profile edit form.
func Profile(first, last, email string) (service.ProfileUpdate, error) {
	var fe Errors
	email = strings.TrimSpace(email)
	checkEmail(&fe, email)
	if err := fe.err(); err != nil {
		return service.ProfileUpdate{}, err
	}
	return service.ProfileUpdate{
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
		Email:     email,
	}, nil
}

func checkPassword(fe *Errors, password string) {
	switch {
	case password == "":
		fe.add("password", "Password is required")
	case len(password) < MinPasswordLength:
		fe.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
}

func checkEmail(fe *Errors, email string) {
	switch {
	case email == "":
		fe.add("email", "Email is required")
	case !emailPattern.MatchString(email):
		fe.add("email", "Invalid email address")
	}
}

// TaskFields are the raw values of the task form.
type TaskFields struct {
	Title       string
	Description string
	DueDate     string
	Category    string
}

// Task validates the task form. Category may be an id or a name from cats;
// an empty category means none.
func Task(f TaskFields, cats []service.Category) (service.TaskInput, error) {
	var fe Errors
	in := service.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
	}
	if in.Title == "" {
		fe.add("title", "Title is required")
	}
	due, err := service.ParseDate(f.DueDate)
	if err != nil {
		fe.add("due_date", err.Error())
	}
	in.DueDate = due

	if strings.TrimSpace(f.Category) != "" {
		c, err := ResolveCategory(f.Category, cats)
		if err != nil {
			fe.add("category", err.Error())
		} else {
			id := c.ID
			in.Category = &id
		}
	}

	if err := fe.err(); err != nil {
		return service.TaskInput{}, err
	}
	return in, nil
}

// ResolveCategory finds a category by id or by case-insensitive name.
func ResolveCategory(value string, cats []service.Category) (service.Category, error) {
	value = strings.TrimSpace(value)
	if id, err := strconv.Atoi(value); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
		return service.Category{}, fmt.Errorf("%w: category %d", errs.ErrNotFound, id)
	}

	var matches []service.Category
	for _, c := range cats {
		if strings.EqualFold(strings.TrimSpace(c.Name), value) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return service.Category{}, fmt.Errorf("%w: category %q", errs.ErrNotFound, value)
	case 1:
		return matches[0], nil
	default:
		return service.Category{}, fmt.Errorf("%w: category %q", errs.ErrAmbiguous, value)
	}
}
