package commands_test

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/testutil"
)

// harness holds the environment a command runs in, built the way the
// dispatcher builds it but on a FakeService and an in-memory session.
type harness struct {
	env    *commands.Env
	svc    *testutil.FakeService
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T, svc *testutil.FakeService, quiet bool) *harness {
	t.Helper()
	t.Setenv(commands.PasswordEnv, "")

	h := &harness{svc: svc}
	sess := session.New()
	if err := sess.Login(testutil.MintToken(time.Now().Add(time.Hour)), "refresh"); err != nil {
		t.Fatalf("login: %v", err)
	}
	notify := output.Toaster{Out: &h.out, ErrOut: &h.errOut, Quiet: quiet}
	h.env = &commands.Env{
		Config: &config.Config{
			Dir:      t.TempDir(),
			Quiet:    quiet,
			Settings: config.Settings{PageSize: testutil.DefaultPageSize},
		},
		Session: sess,
		Service: svc,
		Store:   store.New(svc, notify, zap.NewNop(), testutil.DefaultPageSize),
		Notify:  notify,
		Logger:  zap.NewNop(),
		In:      strings.NewReader(""),
	}
	return h
}

// input sets what the command reads from stdin.
func (h *harness) input(s string) *harness {
	h.env.In = strings.NewReader(s)
	return h
}

// run parses argv with the command's flags and runs it.
func (h *harness) run(t *testing.T, cmd commands.Command, argv ...string) int {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(argv); err != nil {
		t.Fatalf("parse flags %v: %v", argv, err)
	}
	return cmd.Run(context.Background(), h.env, fs.Args(), &h.out, &h.errOut)
}

func (h *harness) stdout() string { return h.out.String() }
func (h *harness) stderr() string { return h.errOut.String() }
