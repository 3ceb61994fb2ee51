package commands

import (
	"errors"
	"fmt"
	"io"

	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
)

// report prints err as one or more "error: " lines and returns its exit code.
func report(errOut io.Writer, err error) int {
	var fe forms.Errors
	switch {
	case errors.As(err, &fe):
		for _, f := range fe {
			fmt.Fprintf(errOut, "error: %s\n", f)
		}
	case errors.Is(err, errs.ErrSessionExpired):
		fmt.Fprintln(errOut, "error: session expired (run: taskdeck login)")
	case errors.Is(err, errs.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskdeck login)")
	case errors.Is(err, errs.ErrUnauthorized):
		fmt.Fprintln(errOut, "error: unauthorized (run: taskdeck login)")
	case exitcode.For(err) == exitcode.UserError:
		fmt.Fprintf(errOut, "error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	}
	return exitcode.For(err)
}

// usageError prints a user error message.
func usageError(errOut io.Writer, msg string) int {
	fmt.Fprintf(errOut, "error: %s\n", msg)
	return exitcode.UserError
}

// done prints "ok" unless quiet.
func done(env *Env, out io.Writer) int {
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// mutationFailed returns the exit code of a failed store mutation. The store
// has already printed its toast, except for auth failures.
func mutationFailed(errOut io.Writer, err error) int {
	if errs.IsAuth(err) {
		return report(errOut, err)
	}
	return exitcode.For(err)
}
