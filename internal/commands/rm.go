package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
}

func (c *RmCmd) Name() string           { return "rm" }
func (c *RmCmd) Aliases() []string      { return []string{"delete"} }
func (c *RmCmd) Synopsis() string       { return "Delete a task" }
func (c *RmCmd) Usage() string          { return "taskdeck rm [common flags] [--yes] <id>" }
func (c *RmCmd) Access() session.Access { return session.Protected }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	card, code := openCard(ctx, env, args, errOut)
	if card == nil {
		return code
	}

	card.AskDelete()
	if !c.yes {
		question := fmt.Sprintf("Delete task %d %q?", card.Task().ID, card.Task().Title)
		ok, err := output.Confirm(env.In, errOut, question)
		if err != nil {
			card.CancelDelete()
			return usageError(errOut, fmt.Sprintf("failed to read answer: %v", err))
		}
		if !ok {
			card.CancelDelete()
			fmt.Fprintln(errOut, "aborted")
			return exitcode.UserError
		}
	}

	if err := card.Delete(ctx); err != nil {
		return mutationFailed(errOut, err)
	}
	return exitcode.Success
}
