package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	username string
	email    string
	andLogin bool
}

func (c *SignupCmd) Name() string            { return "signup" }
func (c *SignupCmd) Aliases() []string       { return []string{"register"} }
func (c *SignupCmd) Synopsis() string        { return "Create an account" }
func (c *SignupCmd) Usage() string           { return "taskdeck signup [common flags] --username <name> --email <addr> [--login]" }
func (c *SignupCmd) Access() session.Access { return session.GuestOnly }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.BoolVar(&c.andLogin, "login", false, "")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	password, err := readPassword(env, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
		return exitcode.UserError
	}

	reg, err := forms.Signup(c.username, c.email, password)
	if err != nil {
		return report(errOut, err)
	}
	if err := env.Service.Register(ctx, reg); err != nil {
		return report(errOut, err)
	}

	if !c.andLogin {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "Account created successfully! Please log in to continue.")
		}
		return exitcode.Success
	}
	if !env.Config.Quiet {
		fmt.Fprintln(out, "Account created successfully!")
	}
	return login(ctx, env, service.Credentials{Username: reg.Username, Password: reg.Password}, out, errOut)
}
