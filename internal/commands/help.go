package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/session"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string           { return "help" }
func (c *HelpCmd) Aliases() []string      { return nil }
func (c *HelpCmd) Synopsis() string       { return "Print usage" }
func (c *HelpCmd) Usage() string          { return "taskdeck help" }
func (c *HelpCmd) Access() session.Access { return session.Public }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	WriteHelp(out, DefaultRegistry)
	return exitcode.Success
}

// WriteHelp prints the usage of every command in r.
func WriteHelp(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %-18s %s\n", "taskdeck", "List tasks (same as taskdeck list)")
	for _, cmd := range r.All() {
		fmt.Fprintf(w, "  %-18s %s\n", "taskdeck "+cmd.Name(), cmd.Synopsis())
		fmt.Fprintf(w, "      %s\n", cmd.Usage())
	}
	fmt.Fprint(w, commonFlagsHelp)
}

const commonFlagsHelp = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
