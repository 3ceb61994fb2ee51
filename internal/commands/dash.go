package commands

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"taskdeck/internal/dashboard"
	"taskdeck/internal/errs"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/taskcard"
)

func init() {
	Register(&DashCmd{})
}

// DashCmd implements the interactive dashboard: one command per input line.
type DashCmd struct{}

func (c *DashCmd) Name() string           { return "dash" }
func (c *DashCmd) Aliases() []string      { return []string{"dashboard"} }
func (c *DashCmd) Synopsis() string       { return "Browse tasks interactively" }
func (c *DashCmd) Usage() string          { return "taskdeck dash [common flags]" }
func (c *DashCmd) Access() session.Access { return session.Protected }

func (c *DashCmd) RegisterFlags(fs *flag.FlagSet) {}

const dashHelp = `commands:
  n, next              next page
  p, prev              previous page
  g <page>             go to page
  f <filter>           all, completed or pending
  s [text]             search (empty clears)
  c <id|name|none>     category filter
  a <title>            add a task
  v <id>               show task details
  t <id>               toggle completion
  d <id>               delete a task
  r                    refresh
  h, ?                 this help
  q, quit              leave
`

// lockedWriter serializes writes from the input loop and the debounced
// search callback.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type dashSession struct {
	env    *Env
	model  *dashboard.Model
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func (c *DashCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	var mu sync.Mutex
	d := &dashSession{
		env:    env,
		model:  dashboard.New(env.Store, env.Config.Settings.SearchDebounce, env.Logger),
		in:     bufio.NewReader(env.In),
		out:    lockedWriter{mu: &mu, w: out},
		errOut: lockedWriter{mu: &mu, w: errOut},
	}
	defer d.model.Close()

	d.model.OnSearch = func(err error) {
		if err != nil {
			report(d.errOut, err)
			return
		}
		d.render()
	}

	if err := d.model.Load(ctx); err != nil {
		return report(errOut, err)
	}
	d.render()

	for {
		fmt.Fprint(d.out, "> ")
		line, err := d.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return usageError(d.errOut, fmt.Sprintf("failed to read input: %v", err))
		}
		if line == "" && err == io.EOF {
			fmt.Fprintln(d.out)
			return exitcode.Success
		}

		quit, cmdErr := d.exec(ctx, strings.TrimSpace(line))
		if cmdErr != nil {
			code := report(d.errOut, cmdErr)
			if errs.IsAuth(cmdErr) {
				return code
			}
		}
		if quit {
			return exitcode.Success
		}
		if err == io.EOF {
			return exitcode.Success
		}
	}
}

// exec runs one input line.
func (d *dashSession) exec(ctx context.Context, line string) (quit bool, err error) {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "h", "?", "help":
		fmt.Fprint(d.out, dashHelp)
		return false, nil
	case "n", "next":
		err = d.model.NextPage(ctx)
	case "p", "prev":
		err = d.model.PrevPage(ctx)
	case "g":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil || n < 1 {
			return false, d.usage(fmt.Sprintf("invalid page number: %s", arg))
		}
		err = d.model.GoTo(ctx, n)
	case "f":
		filter, parseErr := service.ParseCompletion(arg)
		if parseErr != nil {
			return false, d.usage(parseErr.Error())
		}
		err = d.model.SetFilter(ctx, filter)
	case "s":
		d.model.Search(ctx, arg)
		return false, nil
	case "c":
		err = d.setCategory(ctx, arg)
	case "r":
		err = d.model.Load(ctx)
	case "a":
		return false, d.add(ctx, arg)
	case "v":
		return false, d.show(ctx, arg)
	case "t":
		err = d.toggle(ctx, arg)
	case "d":
		err = d.remove(ctx, arg)
	default:
		return false, d.usage(fmt.Sprintf("unknown command: %s (h for help)", verb))
	}

	switch {
	case errors.Is(err, dashboard.ErrNoNextPage), errors.Is(err, dashboard.ErrNoPreviousPage):
		fmt.Fprintln(d.errOut, err)
		return false, nil
	case err != nil:
		return false, err
	}
	d.render()
	return false, nil
}

func (d *dashSession) setCategory(ctx context.Context, arg string) error {
	if arg == "" || strings.EqualFold(arg, "none") {
		return d.model.SetCategory(ctx, 0)
	}
	cat, err := forms.ResolveCategory(arg, d.model.AvailableCategories())
	if err != nil {
		return err
	}
	return d.model.SetCategory(ctx, cat.ID)
}

func (d *dashSession) card(ctx context.Context, arg string) (*taskcard.Card, error) {
	id, err := ParseTaskID(strings.Fields(arg))
	if err != nil {
		return nil, d.usage(err.Error())
	}
	t, err := loadTask(ctx, d.env, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, d.usage(fmt.Sprintf("task not found: %d", id))
	}
	if err != nil {
		return nil, err
	}
	return taskcard.New(d.env.Store, t), nil
}

// usage prints a user error. The loop goes on.
func (d *dashSession) usage(msg string) error {
	usageError(d.errOut, msg)
	return nil
}

func (d *dashSession) add(ctx context.Context, title string) error {
	in, err := forms.Task(forms.TaskFields{Title: title}, nil)
	if err != nil {
		return err
	}
	if _, err := d.env.Store.AddTask(ctx, in); err != nil {
		return toasted(err)
	}
	if err := d.model.Load(ctx); err != nil {
		return err
	}
	d.render()
	return nil
}

func (d *dashSession) show(ctx context.Context, arg string) error {
	card, err := d.card(ctx, arg)
	if card == nil {
		return err
	}
	card.ShowDetails()
	var buf bytes.Buffer
	output.FormatTaskDetails(&buf, card.Task(), categoryName(d.env, card.Task()))
	card.HideDetails()
	_, err = d.out.Write(buf.Bytes())
	return err
}

func (d *dashSession) toggle(ctx context.Context, arg string) error {
	card, err := d.card(ctx, arg)
	if card == nil {
		return err
	}
	if err := card.Toggle(ctx); err != nil {
		return toasted(err)
	}
	return d.model.Refresh(ctx)
}

func (d *dashSession) remove(ctx context.Context, arg string) error {
	card, err := d.card(ctx, arg)
	if card == nil {
		return err
	}
	card.AskDelete()
	ok, err := output.Confirm(d.in, d.out, fmt.Sprintf("Delete task %d %q?", card.Task().ID, card.Task().Title))
	if err != nil || !ok {
		card.CancelDelete()
		return err
	}
	if err := card.Delete(ctx); err != nil {
		return toasted(err)
	}
	page := d.model.Page()
	if err := d.model.AfterDelete(ctx); err != nil {
		return err
	}
	if d.model.Page() == page {
		return d.model.Refresh(ctx)
	}
	return nil
}

// render prints the filter line, the current page and the footer in one write.
func (d *dashSession) render() {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "filter: %s", d.model.Filter())
	if s := d.model.SearchText(); s != "" {
		fmt.Fprintf(&buf, "  search: %q", s)
	}
	if id := d.model.Category(); id != 0 {
		fmt.Fprintf(&buf, "  category: %s", d.env.Store.State().CategoryName(id))
	}
	fmt.Fprintln(&buf)
	renderPage(d.env, d.model, &buf)
	d.out.Write(buf.Bytes())
}

// toasted drops a mutation failure the store already reported. Auth
// failures are kept so the loop can stop.
func toasted(err error) error {
	if errs.IsAuth(err) {
		return err
	}
	return nil
}
