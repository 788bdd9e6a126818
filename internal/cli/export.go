package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all projects as CSV",
	Long: `Write every project to vibe-tracker-export-YYYY-MM-DD.csv.

Examples:
  vibe export
  vibe export --dir ~/Downloads`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var exportDir string

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory to write into (default: export_dir setting)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Load(cmd.Context()); err != nil {
		return err
	}

	if cmd.Flags().Changed("dir") {
		a.Config.ExportDir = exportDir
	}

	path, err := a.Export()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d projects to %s\n", len(a.Projects.Projects()), path)
	return nil
}
