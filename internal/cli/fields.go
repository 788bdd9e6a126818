package cli

import (
	"github.com/spf13/cobra"

	"github.com/existflow/vibetrack/internal/editor"
)

// fieldFlags maps command-line flags onto editor fields
var fieldFlags = []struct {
	field editor.Field
	name  string
	usage string
}{
	{editor.AppName, "app", "App name"},
	{editor.LLMName, "platform", "LLM platform (e.g. Claude, ChatGPT)"},
	{editor.ChatThreadTitle, "title", "Chat thread title"},
	{editor.ChatThreadURL, "url", "Chat thread URL"},
	{editor.LastChatDate, "date", "Last chat date (YYYY-MM-DD)"},
	{editor.AppURL, "app-url", "Deployed app URL"},
	{editor.VSCodeURL, "vscode", "VS Code / workspace URL"},
	{editor.GitHubRef, "github", "GitHub repository or reference"},
	{editor.FirebaseRulesURL, "rules", "Firebase rules URL"},
	{editor.LastSolvedProblem, "solved", "Last solved problem"},
	{editor.NextProblemToSolve, "next", "Next problem to solve"},
	{editor.Notes, "notes", "Free-form notes"},
}

type fieldValues map[editor.Field]*string

func bindFieldFlags(cmd *cobra.Command) fieldValues {
	values := make(fieldValues, len(fieldFlags))
	for _, f := range fieldFlags {
		values[f.field] = cmd.Flags().String(f.name, "", f.usage)
	}
	return values
}

// apply stages every flag the user passed and reports how many there were
func (v fieldValues) apply(cmd *cobra.Command, ed *editor.Editor) (int, error) {
	n := 0
	for _, f := range fieldFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if err := ed.Set(f.field, *v[f.field]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
