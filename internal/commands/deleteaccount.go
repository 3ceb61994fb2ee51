package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/profile"
	"taskdeck/internal/session"
)

func init() {
	Register(&DeleteAccountCmd{})
}

// DeleteAccountCmd implements the deleteaccount command.
type DeleteAccountCmd struct {
	yes bool
}

func (c *DeleteAccountCmd) Name() string           { return "deleteaccount" }
func (c *DeleteAccountCmd) Aliases() []string      { return nil }
func (c *DeleteAccountCmd) Synopsis() string       { return "Delete the account and log out" }
func (c *DeleteAccountCmd) Usage() string          { return "taskdeck deleteaccount [common flags] [--yes]" }
func (c *DeleteAccountCmd) Access() session.Access { return session.Protected }

func (c *DeleteAccountCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *DeleteAccountCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	view := profile.New(env.Service, env.Store, env.Session, env.Notify)

	view.AskDelete()
	if !c.yes {
		ok, err := output.Confirm(env.In, errOut, "Delete your account and all of its tasks?")
		if err != nil {
			view.CancelDelete()
			return usageError(errOut, fmt.Sprintf("failed to read answer: %v", err))
		}
		if !ok {
			view.CancelDelete()
			fmt.Fprintln(errOut, "aborted")
			return exitcode.UserError
		}
	}

	if err := view.DeleteAccount(ctx); err != nil {
		return mutationFailed(errOut, err)
	}
	return exitcode.Success
}
