// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"go.uber.org/zap"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

// Env is everything a command may use. The dispatcher builds it once per run.
type Env struct {
	// Config is always provided (config dir, paths, settings).
	Config *config.Config

	// Session is the stored token pair.
	Session *session.Session

	// Service talks to the backend. Nil for Public commands.
	Service service.Service

	// Store caches tasks and categories on top of Service. Nil for Public commands.
	Store *store.Store

	// Notify receives the success and failure toasts of views.
	Notify store.Notifier

	// Logger is a no-op logger unless --debug is set.
	Logger *zap.Logger

	// In is read for passwords and confirmations.
	In io.Reader

	// ReadSecret reads a password without echo. Nil unless stdin is a terminal.
	ReadSecret func() (string, error)
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Access tells the dispatcher which sessions may run the command.
	Access() session.Access

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}
