package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/forms"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
	category    string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskdeck add [common flags] [-d <description>] [--due YYYY-MM-DD] [-c <category>] <title...>"
}
func (c *AddCmd) Access() session.Access { return session.Protected }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.category, "category", "", "")
	fs.StringVar(&c.category, "c", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fields := forms.TaskFields{
		Title:       strings.Join(args, " "),
		Description: c.description,
		DueDate:     c.due,
		Category:    c.category,
	}
	cats, err := categoriesFor(ctx, env, fields.Category)
	if err != nil {
		return report(errOut, err)
	}
	in, err := forms.Task(fields, cats)
	if err != nil {
		return report(errOut, err)
	}

	t, err := env.Store.AddTask(ctx, in)
	if err != nil {
		return mutationFailed(errOut, err)
	}
	if !env.Config.Quiet {
		output.FormatTask(out, t, categoryName(env, t))
	}
	return exitcode.Success
}
