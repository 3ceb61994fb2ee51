// Package main is the entry point for the taskdeck CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"taskdeck/internal/apiclient"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	factory := func(cfg *config.Config, sess *session.Session, logger *zap.Logger) (service.Service, error) {
		return apiclient.New(cfg, sess, logger,
			apiclient.WithLogoutHook(func() {
				logger.Debug("session cleared after failed refresh")
			}),
		), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	dispatcher.Stdin = os.Stdin

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
