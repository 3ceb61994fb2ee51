package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// PasswordEnv is read before prompting for a password.
const PasswordEnv = "TASKDECK_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
}

func (c *LoginCmd) Name() string            { return "login" }
func (c *LoginCmd) Aliases() []string       { return nil }
func (c *LoginCmd) Synopsis() string        { return "Log in with username and password" }
func (c *LoginCmd) Usage() string           { return "taskdeck login [common flags] [--username <name>] [<name>]" }
func (c *LoginCmd) Access() session.Access { return session.GuestOnly }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	username := c.username
	if username == "" && len(args) > 0 {
		username = args[0]
	}
	password, err := readPassword(env, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
		return exitcode.UserError
	}

	creds, err := forms.Login(username, password)
	if err != nil {
		return report(errOut, err)
	}
	return login(ctx, env, creds, out, errOut)
}

// login exchanges creds for a token pair and stores it. A failed attempt
// leaves no tokens behind.
func login(ctx context.Context, env *Env, creds service.Credentials, out, errOut io.Writer) int {
	pair, err := env.Service.Login(ctx, creds)
	if err != nil {
		if clearErr := env.Session.Clear(); clearErr != nil {
			env.Logger.Warn("failed to clear session", zap.Error(clearErr))
		}
		if errors.Is(err, errs.ErrUnauthorized) {
			fmt.Fprintln(errOut, "error: Login failed. Please check your credentials.")
			return exitcode.AuthError
		}
		return report(errOut, err)
	}

	if err := env.Config.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := env.Session.Login(pair.Access, pair.Refresh); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	env.Logger.Debug("logged in", zap.String("username", creds.Username))

	if !env.Config.Quiet {
		fmt.Fprintln(out, "Login successful!")
	}
	return exitcode.Success
}

// readPassword returns $TASKDECK_PASSWORD, a line typed at the terminal
// without echo, or one line read from env.In.
func readPassword(env *Env, errOut io.Writer) (string, error) {
	if p := os.Getenv(PasswordEnv); p != "" {
		return p, nil
	}
	if env.ReadSecret != nil {
		fmt.Fprint(errOut, "Password: ")
		p, err := env.ReadSecret()
		fmt.Fprintln(errOut)
		return p, err
	}
	if env.In == nil {
		return "", nil
	}
	fmt.Fprint(errOut, "Password: ")
	line, err := lineReader(env.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// lineReader reuses r when it already buffers.
func lineReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
