package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/vibetrack/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.mode {
	case ModeLogin:
		return m.renderLogin()
	case ModeHelp:
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHelp(), m.renderStatusBar())
	}

	mainContent := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderProjectList())

	switch m.mode {
	case ModeForm:
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderForm(),
			lipgloss.WithWhitespaceChars(" "),
		)
	case ModeConfirmDelete:
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			m.renderConfirmDelete(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Vibe Tracker")

	right := time.Now().Format("15:04:05")
	if u, ok := m.list.User(); ok {
		right = u.Label() + "  " + right
	}
	right = HelpStyle.Render(right)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	return HeaderStyle.Render(title + repeat(" ", gap) + right)
}

// Column widths of the project table
const (
	colName     = 30
	colPlatform = 16
	colDate     = 12
)

func (m Model) renderProjectList() string {
	width := m.width - 4
	var s string

	header := fmt.Sprintf("  %-*s %-*s %-*s %s", colName, "App", colPlatform, "Platform", colDate, "Last chat", "Updated")
	s += ColumnHeaderStyle.Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(repeat("─", width-4)) + "\n"

	if m.list.Loading() {
		s += m.spinner.View() + HelpStyle.Render(" Loading projects...") + "\n"
	}
	if err := m.list.Err(); err != nil {
		s += ErrorStyle.Render("Could not load projects: "+err.Error()) + "\n"
	}

	projects := m.visible()
	if len(projects) == 0 && !m.list.Loading() && m.list.Err() == nil {
		if m.list.Filter() != "" {
			s += HelpStyle.Render(fmt.Sprintf("  No projects match %q. Esc clears the filter.", m.list.Filter()))
		} else {
			s += HelpStyle.Render("  No projects. Press 'a' to add one.")
		}
	}

	// Keep the cursor row and its detail line on screen
	rows := m.height - 9
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	for i := start; i < len(projects) && i < start+rows; i++ {
		p := projects[i]
		cursor := "  "
		style := RowStyle
		if i == m.cursor {
			cursor = "❯ "
			style = RowSelectedStyle
		}

		name := fmt.Sprintf("%s%-*s ", cursor, colName, truncate(p.AppName, colName))
		platform := PlatformStyle.Render(fmt.Sprintf("%-*s", colPlatform, truncate(p.LLMName, colPlatform)))
		rest := fmt.Sprintf(" %-*s %s", colDate, p.LastChatDate, formatUpdated(p.LastUpdatedAt))

		s += style.Render(name) + platform + style.Render(rest) + "\n"
		if i == m.cursor {
			if detail := projectDetail(p); detail != "" {
				s += DetailStyle.Render("    "+truncate(detail, width-8)) + "\n"
			}
		}
	}

	return ListStyle.Width(m.width).Height(m.height - 3).Render(s)
}

// projectDetail joins the thread title and saved links of p
func projectDetail(p model.Project) string {
	var parts []string
	if p.ChatThreadTitle != "" {
		parts = append(parts, p.ChatThreadTitle)
	}
	if p.AppURL != "" {
		parts = append(parts, "App: "+p.AppURL)
	}
	if p.VSCodeURL != "" {
		parts = append(parts, "VS Code: "+p.VSCodeURL)
	}
	return strings.Join(parts, "  ·  ")
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeFilter {
		count := fmt.Sprintf(" [%d/%d]", len(m.visible()), len(m.list.Projects()))
		return StatusBarStyle.Width(m.width).Render("/" + m.search.View() + count)
	}

	help := "a:add  e:edit  d:del  /:search  o:resume  x:export  ?:help  q:quit  L:logout"
	switch {
	case m.message != "" && m.isError:
		return StatusBarStyle.Width(m.width).Render(ErrorStyle.Render(m.message))
	case m.message != "":
		help = m.message
	case m.list.Filter() != "":
		help = fmt.Sprintf("/%s  [%d matches]  Esc:clear", m.list.Filter(), len(m.visible()))
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderConfirmDelete() string {
	name := ""
	if m.pendingDelete != nil {
		name = m.pendingDelete.AppName
	}

	content := lipgloss.NewStyle().Bold(true).Foreground(Danger).Render("Delete project?") + "\n\n"
	content += fmt.Sprintf("%q will be removed permanently.\n\n", truncate(name, 40))
	content += HelpStyle.Render("y:delete  any other key:cancel")

	return DangerModalStyle.Width(50).Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ────╮
│                           │
│  Navigation               │
│  ──────────               │
│  j/↓     Move down        │
│  k/↑     Move up          │
│  g/G     Top / bottom     │
│  /       Search           │
│  Esc     Clear search     │
│                           │
│  Projects                 │
│  ────────                 │
│  a       Add project      │
│  e/Enter Edit project     │
│  d       Delete           │
│  o       Quick resume     │
│  x       Export CSV       │
│  r       Refresh          │
│                           │
│  Other                    │
│  ─────                    │
│  L       Sign out         │
│  ?       Toggle help      │
│  q       Quit             │
│                           │
╰───────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
