package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/dashboard"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskdeck` (no args) and `taskdeck list [flags]`.
type ListCmd struct {
	page     int
	filter   string
	search   string
	category string
}

// SetPage sets the page number (for testing).
func (c *ListCmd) SetPage(page int) {
	c.page = page
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskdeck list [common flags] [--page <n>] [--filter all|completed|pending] [--search <text>] [--category <id|name>]"
}
func (c *ListCmd) Access() session.Access { return session.Protected }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.page, "page", 1, "")
	fs.StringVar(&c.filter, "filter", "all", "")
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
	fs.StringVar(&c.category, "category", "", "")
	fs.StringVar(&c.category, "c", "", "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, fmt.Sprintf("unexpected arguments: %s", strings.Join(args, " ")))
	}
	if c.page < 1 {
		return usageError(errOut, fmt.Sprintf("invalid page number: %d", c.page))
	}
	filter, err := service.ParseCompletion(c.filter)
	if err != nil {
		return usageError(errOut, err.Error())
	}

	if err := env.Store.FetchCategories(ctx); err != nil {
		return report(errOut, err)
	}
	category := 0
	if strings.TrimSpace(c.category) != "" {
		cat, err := resolveCategory(ctx, env, c.category)
		if err != nil {
			return report(errOut, err)
		}
		category = cat.ID
	}

	model := dashboard.New(env.Store, 0, env.Logger)
	defer model.Close()
	if err := model.Apply(ctx, filter, strings.TrimSpace(c.search), category, c.page); err != nil {
		return report(errOut, err)
	}

	renderPage(env, model, out)
	return exitcode.Success
}

// renderPage prints the tasks of the current page and the page footer.
func renderPage(env *Env, model *dashboard.Model, out io.Writer) {
	st := env.Store.State()
	tasks := st.PageTasks()
	if len(tasks) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return
	}
	for _, t := range tasks {
		output.FormatTask(out, t, categoryName(env, t))
	}
	if !env.Config.Quiet {
		output.FormatPagination(out, model.Page(), model.PageCount(), st.Count)
	}
}
