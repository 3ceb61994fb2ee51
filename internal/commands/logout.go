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
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string            { return "logout" }
func (c *LogoutCmd) Aliases() []string       { return nil }
func (c *LogoutCmd) Synopsis() string        { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string           { return "taskdeck logout [common flags]" }
func (c *LogoutCmd) Access() session.Access { return session.Any }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if !env.Session.Present() {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := env.Session.Clear(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}
	if env.Store != nil {
		env.Store.Reset()
	}
	return done(env, out)
}
