package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/vibetrack/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Long: `List your projects, most recently updated first.

Examples:
  vibe list
  vibe list --filter claude`,
	RunE: runList,
}

var listFilter string

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Only show projects whose app or platform contains this text")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	a.Projects.SetFilter(listFilter)
	projects := a.Projects.Visible()

	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		if listFilter != "" {
			fmt.Fprintf(out, "No projects match %q.\n", listFilter)
			return nil
		}
		fmt.Fprintln(out, "No projects found. Add one with: vibe add --app \"My app\" --title ... --url ...")
		return nil
	}

	u, _ := a.Projects.User()
	printProjects(out, u.Label(), projects)
	return nil
}

func printProjects(out io.Writer, owner string, projects []model.Project) {
	fmt.Fprintf(out, "\n📁 %s (%d projects)\n", owner, len(projects))
	fmt.Fprintln(out, strings.Repeat("─", 78))

	for _, p := range projects {
		printProject(out, p)
	}
	fmt.Fprintln(out)
}

func printProject(out io.Writer, p model.Project) {
	// Truncate app name if too long
	name := p.AppName
	if len(name) > 28 {
		name = name[:25] + "..."
	}

	updated := time.UnixMilli(p.LastUpdatedAt).Format("Jan 2 15:04")
	fmt.Fprintf(out, "  %-8s  %-28s  %-16s  %-10s  %s\n", p.ShortID(), name, p.LLMName, p.LastChatDate, updated)
}
