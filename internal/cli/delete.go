package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/vibetrack/internal/store"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [project-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a project",
	Long: `Delete a project by its ID or a unique prefix of it.

Examples:
  vibe delete 3f2a9c1b
  vibe rm 3f2a --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	if err := a.Load(ctx); err != nil {
		return err
	}

	p, err := store.FindByPrefix(a.Projects.Projects(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.ConfirmDelete && !deleteForce {
		fmt.Fprintf(out, "About to delete: \"%s\" (ID: %s)\n", p.AppName, p.ID)
		fmt.Fprint(out, "Are you sure? [y/N]: ")
		confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		confirm = strings.TrimSpace(confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := a.Projects.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	fmt.Fprintf(out, "🗑️  Deleted: \"%s\"\n", p.AppName)
	return nil
}
