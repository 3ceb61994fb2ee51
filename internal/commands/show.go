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
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct{}

func (c *ShowCmd) Name() string           { return "show" }
func (c *ShowCmd) Aliases() []string      { return []string{"view"} }
func (c *ShowCmd) Synopsis() string       { return "Show task details" }
func (c *ShowCmd) Usage() string          { return "taskdeck show [common flags] <id>" }
func (c *ShowCmd) Access() session.Access { return session.Protected }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	card, code := openCard(ctx, env, args, errOut)
	if card == nil {
		return code
	}
	if _, err := categories(ctx, env); err != nil {
		return report(errOut, err)
	}

	card.ShowDetails()
	output.FormatTaskDetails(out, card.Task(), categoryName(env, card.Task()))
	card.HideDetails()
	return exitcode.Success
}
