package commands

import (
	"context"
	"flag"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string           { return "toggle" }
func (c *ToggleCmd) Aliases() []string      { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string       { return "Flip a task between completed and pending" }
func (c *ToggleCmd) Usage() string          { return "taskdeck toggle [common flags] <id>" }
func (c *ToggleCmd) Access() session.Access { return session.Protected }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	card, code := openCard(ctx, env, args, errOut)
	if card == nil {
		return code
	}
	if err := card.Toggle(ctx); err != nil {
		return mutationFailed(errOut, err)
	}
	if !env.Config.Quiet {
		output.FormatTask(out, card.Task(), categoryName(env, card.Task()))
	}
	return exitcode.Success
}
