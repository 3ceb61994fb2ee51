package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/session"
)

func init() {
	Register(&CategoriesCmd{})
}

// CategoriesCmd implements the categories command.
type CategoriesCmd struct{}

func (c *CategoriesCmd) Name() string           { return "categories" }
func (c *CategoriesCmd) Aliases() []string      { return []string{"cats"} }
func (c *CategoriesCmd) Synopsis() string       { return "List categories" }
func (c *CategoriesCmd) Usage() string          { return "taskdeck categories [common flags]" }
func (c *CategoriesCmd) Access() session.Access { return session.Protected }

func (c *CategoriesCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CategoriesCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if err := env.Store.FetchCategories(ctx); err != nil {
		return report(errOut, err)
	}
	cats := env.Store.State().Categories
	if len(cats) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "no categories")
		}
		return exitcode.Success
	}
	for _, cat := range cats {
		output.FormatCategory(out, cat)
	}
	return exitcode.Success
}
