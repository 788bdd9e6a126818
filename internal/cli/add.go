package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new project",
	Long: `Add a new project. App name, chat thread title and URL are required;
the platform defaults to the first configured one and the date to today.

Examples:
  vibe add --app "Recipe box" --title "Recipe app" --url https://claude.ai/chat/abc
  vibe add --app Tracker --platform ChatGPT --title "Tracker v2" --url https://chatgpt.com/c/1 --next "Add login"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var addValues fieldValues

func init() {
	addValues = bindFieldFlags(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	user, err := a.RequireUser()
	if err != nil {
		return err
	}

	ed := a.NewEditor(nil)
	if _, err := addValues.apply(cmd, ed); err != nil {
		return err
	}

	p, err := ed.Submit(cmd.Context(), &user)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added \"%s\" [%s] (%s)\n", p.AppName, p.LLMName, p.ShortID())
	return nil
}
