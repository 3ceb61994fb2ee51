package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/taskcard"
)

// ErrTaskIDRequired indicates no task id was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the task id from the first positional argument.
//
// Parsing rules:
// 1. No args → error: task id required
// 2. Digits, optionally prefixed by '#' → the id
// 3. Zero or anything else → error: invalid task id: <arg>
// 4. More than one arg → error: too many arguments
func ParseTaskID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}

	ref := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	id, err := strconv.Atoi(ref)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// openCard parses the task id from args and loads the task into a card.
// On failure it prints the error and returns the exit code.
func openCard(ctx context.Context, env *Env, args []string, errOut io.Writer) (*taskcard.Card, int) {
	id, err := ParseTaskID(args)
	if err != nil {
		return nil, usageError(errOut, err.Error())
	}
	t, err := loadTask(ctx, env, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, usageError(errOut, fmt.Sprintf("task not found: %d", id))
		}
		return nil, report(errOut, err)
	}
	return taskcard.New(env.Store, t), exitcode.Success
}
