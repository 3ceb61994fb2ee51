// Package cli parses the command line, builds the per-run environment and
// dispatches to a command.
package cli

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
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

// ServiceFactory creates the Service a run talks to.
// Used to inject the backend during dispatch.
type ServiceFactory func(cfg *config.Config, sess *session.Session, logger *zap.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory

	// Stdin is read for passwords, confirmations and the dash loop.
	// Nil reads as empty input.
	Stdin io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return flagError(errOut, err)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger := newLogger(debug, errOut)
	defer func() { _ = logger.Sync() }()

	env := &commands.Env{
		Config: cfg,
		Logger: logger,
		Notify: output.Toaster{Out: out, ErrOut: errOut, Quiet: quiet},
		In:     d.stdin(),

		ReadSecret: secretReader(d.Stdin),
	}
	if cmd.Access() == session.Public {
		return cmd.Run(ctx, env, positionalArgs, out, errOut)
	}

	sess, err := session.Open(session.FileStore{Path: cfg.TokenPath()})
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read token: %v\n", err)
		return exitcode.AuthError
	}
	env.Session = sess

	switch err := session.Check(cmd.Access(), sess); {
	case errors.Is(err, errs.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskdeck login)")
		return exitcode.AuthError
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		if !quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: no backend configured")
		return exitcode.BackendError
	}
	svc, err := d.factory(cfg, sess, logger)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}
	env.Service = svc
	env.Store = store.New(svc, env.Notify, logger, cfg.Settings.PageSize)

	logger.Debug("dispatching",
		zap.String("command", cmd.Name()),
		zap.Bool("authenticated", sess.Authenticated()))
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// stdin wraps the input once so every reader in a run shares one buffer.
func (d *Dispatcher) stdin() *bufio.Reader {
	if d.Stdin == nil {
		return bufio.NewReader(strings.NewReader(""))
	}
	return bufio.NewReader(d.Stdin)
}

// secretReader returns a no-echo password reader when r is a terminal.
func secretReader(r io.Reader) func() (string, error) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
}

// flagError reports a flag parsing failure.
func flagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	// Check for missing flag value
	if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
		flagPart := strings.TrimPrefix(errStr, "flag needs an argument: ")
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", strings.TrimSpace(flagPart))
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}

// newLogger returns a development console logger on errOut with --debug,
// else a no-op logger.
func newLogger(debug bool, errOut io.Writer) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(errOut),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.Development())
}
