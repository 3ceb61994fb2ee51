package commands

import (
	"context"
	"flag"
	"io"
	"strconv"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
)

func init() {
	Register(&EditCmd{})
}

// optString is a string flag that remembers whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// or returns the flag value if given, else def.
func (o *optString) or(def string) string {
	if o.set {
		return o.value
	}
	return def
}

// EditCmd implements the edit command. Fields without a flag keep their
// current value; an empty --due or --category clears the field.
type EditCmd struct {
	title       optString
	description optString
	due         optString
	category    optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskdeck edit [common flags] [--title <t>] [-d <description>] [--due YYYY-MM-DD] [-c <category>] <id>"
}
func (c *EditCmd) Access() session.Access { return session.Protected }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.category, "category", "")
	fs.Var(&c.category, "c", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	card, code := openCard(ctx, env, args, errOut)
	if card == nil {
		return code
	}
	cats, err := categories(ctx, env)
	if err != nil {
		return report(errOut, err)
	}

	cur := card.Task()
	current := ""
	if cur.Category != nil {
		current = strconv.Itoa(*cur.Category)
	}
	fields := forms.TaskFields{
		Title:       c.title.or(cur.Title),
		Description: c.description.or(cur.Description),
		DueDate:     c.due.or(cur.DueDate.String()),
		Category:    c.category.or(current),
	}
	in, err := forms.Task(fields, cats)
	if err != nil {
		return report(errOut, err)
	}

	card.Edit()
	if err := card.Save(ctx, in); err != nil {
		card.CancelEdit()
		return mutationFailed(errOut, err)
	}
	if !env.Config.Quiet {
		output.FormatTask(out, card.Task(), categoryName(env, card.Task()))
	}
	return exitcode.Success
}
