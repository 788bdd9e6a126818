package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

var editCmd = &cobra.Command{
	Use:   "edit [project-id]",
	Short: "Update a project",
	Long: `Update fields of a project. The id may be abbreviated to any unique prefix.

Examples:
  vibe edit 3f2a9c1b --next "Fix the auth redirect"
  vibe edit 3f2a --date 2024-03-10 --solved "Deploy works"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var editValues fieldValues

func init() {
	editValues = bindFieldFlags(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	if err := a.Load(ctx); err != nil {
		return err
	}
	user, _ := a.Projects.User()

	p, err := store.FindByPrefix(a.Projects.Projects(), args[0])
	if err != nil {
		return err
	}

	ed := a.NewEditor(&p)
	n, err := editValues.apply(cmd, ed)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("nothing to change: pass at least one field flag (see vibe edit --help)")
	}

	saved, err := ed.Submit(ctx, &user)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("project %s was deleted in the meantime: %w", p.ShortID(), err)
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated \"%s\" (%s)\n", saved.AppName, saved.ShortID())
	return nil
}
