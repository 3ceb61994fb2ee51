package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/output"
	"taskdeck/internal/profile"
	"taskdeck/internal/session"
)

func init() {
	Register(&ProfileCmd{})
}

// ProfileCmd implements the profile command. Without --edit it prints the
// account and the task statistics chart.
type ProfileCmd struct {
	edit  bool
	first optString
	last  optString
	email optString
}

func (c *ProfileCmd) Name() string      { return "profile" }
func (c *ProfileCmd) Aliases() []string { return []string{"me"} }
func (c *ProfileCmd) Synopsis() string  { return "Show or edit the profile" }
func (c *ProfileCmd) Usage() string {
	return "taskdeck profile [common flags] [--edit [--first <name>] [--last <name>] [--email <addr>]]"
}
func (c *ProfileCmd) Access() session.Access { return session.Protected }

func (c *ProfileCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.edit, "edit", false, "")
	fs.Var(&c.first, "first", "")
	fs.Var(&c.last, "last", "")
	fs.Var(&c.email, "email", "")
}

func (c *ProfileCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	view := profile.New(env.Service, env.Store, env.Session, env.Notify)
	u, err := view.User(ctx)
	if err != nil {
		return report(errOut, err)
	}

	if c.edit {
		upd, err := forms.Profile(c.first.or(u.FirstName), c.last.or(u.LastName), c.email.or(u.Email))
		if err != nil {
			return report(errOut, err)
		}
		view.Edit()
		if u, err = view.Save(ctx, upd); err != nil {
			return mutationFailed(errOut, err)
		}
		if !env.Config.Quiet {
			output.FormatProfile(out, u)
		}
		return exitcode.Success
	}

	stats, err := view.LoadStats(ctx)
	if err != nil {
		return report(errOut, err)
	}
	output.FormatProfile(out, u)
	fmt.Fprintln(out)
	output.FormatChart(out, stats)
	return exitcode.Success
}
