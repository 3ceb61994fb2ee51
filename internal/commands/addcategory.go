package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/session"
)

func init() {
	Register(&AddCategoryCmd{})
}

// AddCategoryCmd implements the addcategory command.
type AddCategoryCmd struct{}

func (c *AddCategoryCmd) Name() string           { return "addcategory" }
func (c *AddCategoryCmd) Aliases() []string      { return []string{"createcategory"} }
func (c *AddCategoryCmd) Synopsis() string       { return "Create a category" }
func (c *AddCategoryCmd) Usage() string          { return "taskdeck addcategory [common flags] <name...>" }
func (c *AddCategoryCmd) Access() session.Access { return session.Protected }

func (c *AddCategoryCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCategoryCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return usageError(errOut, "category name required")
	}
	if _, err := env.Store.AddCategory(ctx, name); err != nil {
		return mutationFailed(errOut, err)
	}
	return exitcode.Success
}
