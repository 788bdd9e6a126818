package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/vibetrack/internal/model"
)

// ExportMIMEType is the content type of ExportCSV output
const ExportMIMEType = "text/csv"

// ErrNothingToExport is returned when the list is empty
var ErrNothingToExport = errors.New("no projects to export")

// ExportCSV renders the full snapshot, ignoring the filter. Every value is
// quoted.
func (l *ProjectList) ExportCSV() ([]byte, error) {
	projects := l.Projects()
	if len(projects) == 0 {
		return nil, ErrNothingToExport
	}
	return EncodeCSV(projects), nil
}

// EncodeCSV writes a header of model.ExportColumns and one line per
// project, joined by "\n" with no trailing newline.
func EncodeCSV(projects []model.Project) []byte {
	lines := make([]string, 0, len(projects)+1)
	lines = append(lines, csvLine(model.ExportColumns))
	for _, p := range projects {
		lines = append(lines, csvLine(p.Values()))
	}
	return []byte(strings.Join(lines, "\n"))
}

func csvLine(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// ExportFileName names the export file after the local calendar day
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("vibe-tracker-export-%s.csv", model.Today(now))
}

// WriteExport saves the CSV export into dir and returns its path
func (l *ProjectList) WriteExport(dir string, now time.Time) (string, error) {
	data, err := l.ExportCSV()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
