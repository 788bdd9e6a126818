package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/vibetrack/internal/dashboard"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
)

// tickMsg is sent every second for the header clock
type tickMsg time.Time

// userChangedMsg carries a sign-in or sign-out; nil means signed out
type userChangedMsg struct{ user *model.User }

// storeChangedMsg is sent when the store reports new data
type storeChangedMsg struct{}

// loadedMsg is the result of a list fetch
type loadedMsg struct {
	ticket   dashboard.Ticket
	projects []model.Project
	err      error
}

// deletedMsg reports the outcome of a delete
type deletedMsg struct {
	name string
	err  error
}

// exportedMsg reports the outcome of a CSV export
type exportedMsg struct {
	path  string
	count int
	err   error
}

// Init initializes the model with a tick command and the change listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForUser(), m.waitForChange(), m.spinner.Tick)
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForUser listens for identity changes
func (m Model) waitForUser() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-m.userCh:
			return userChangedMsg{user: u}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// waitForChange listens for store notifications
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changeCh:
			return storeChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// fetchCmd lists the ticket's projects off the UI goroutine
func (m Model) fetchCmd(t dashboard.Ticket) tea.Cmd {
	if !t.Valid() {
		return nil
	}
	s := m.app.Store
	ctx := m.ctx
	return func() tea.Msg {
		projects, err := s.ListByOwner(ctx, t.UserID())
		return loadedMsg{ticket: t, projects: projects, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case userChangedMsg:
		return m.handleUserChanged(msg)

	case storeChangedMsg:
		logger.Debug("store changed, reloading")
		return m, tea.Batch(m.fetchCmd(m.list.BeginLoad()), m.waitForChange())

	case loadedMsg:
		if m.list.ApplyLoad(msg.ticket, msg.projects, msg.err) {
			m.clampCursor()
		}
		return m, nil

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case savedMsg:
		return m.handleSaved(msg)

	case deletedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("delete failed: %w", msg.err))
		} else {
			m.setMessage(fmt.Sprintf("🗑️  Deleted \"%s\"", msg.name))
		}
		m.clampCursor()
		return m, nil

	case exportedMsg:
		switch {
		case errors.Is(msg.err, dashboard.ErrNothingToExport):
			m.setMessage("No projects to export")
		case msg.err != nil:
			m.setError(fmt.Errorf("export failed: %w", msg.err))
		default:
			m.setMessage(fmt.Sprintf("✓ Exported %d projects to %s", msg.count, msg.path))
		}
		return m, nil

	case signedOutMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("sign out failed: %w", msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeLogin:
			return m.updateLogin(msg)
		case ModeForm:
			return m.updateForm(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleUserChanged(msg userChangedMsg) (tea.Model, tea.Cmd) {
	ticket := m.list.SetUser(msg.user)
	m.cursor = 0

	if msg.user == nil {
		logger.Info("signed out, showing login")
		if m.form != nil {
			m.form.ed.Close()
			m.form = nil
		}
		m.pendingDelete = nil
		m.mode = ModeLogin
		m.login.reset()
		m.search.SetValue("")
		m.list.SetFilter("")
		return m, tea.Batch(m.waitForUser(), textinput.Blink)
	}

	logger.Info("signed in", logger.F("user", msg.user.UID))
	if m.mode == ModeLogin {
		m.mode = ModeNormal
	}
	m.login.busy = false
	return m, tea.Batch(m.fetchCmd(ticket), m.waitForUser())
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}

	case msg.String() == "g":
		m.cursor = 0

	case msg.String() == "G":
		m.cursor = len(m.visible()) - 1
		m.clampCursor()

	case key.Matches(msg, keys.Add):
		m.setMessage("")
		return m.startForm(nil)

	case key.Matches(msg, keys.Edit):
		if p, ok := m.currentProject(); ok {
			m.setMessage("")
			return m.startForm(&p)
		}

	case key.Matches(msg, keys.Delete):
		return m.handleDelete()

	case key.Matches(msg, keys.Search):
		return m.startFilter()

	case key.Matches(msg, keys.Escape):
		if m.list.Filter() != "" {
			m.list.SetFilter("")
			m.search.SetValue("")
			m.clampCursor()
			m.setMessage("Filter cleared")
		}

	case key.Matches(msg, keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, keys.Resume):
		m.handleQuickResume()

	case key.Matches(msg, keys.Refresh):
		m.setMessage("Refreshing...")
		return m, m.fetchCmd(m.list.BeginLoad())

	case key.Matches(msg, keys.Logout):
		m.setMessage("Signing out...")
		return m, signOutCmd(m.ctx, m)

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) handleDelete() (tea.Model, tea.Cmd) {
	p, ok := m.currentProject()
	if !ok {
		return m, nil
	}
	if !m.app.Config.ConfirmDelete {
		return m, m.deleteCmd(p)
	}
	m.pendingDelete = &p
	m.mode = ModeConfirmDelete
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pendingDelete
	m.pendingDelete = nil
	m.mode = ModeNormal

	if p == nil || (msg.String() != "y" && msg.String() != "Y") {
		m.setMessage("Cancelled")
		return m, nil
	}
	return m, m.deleteCmd(*p)
}

func (m Model) deleteCmd(p model.Project) tea.Cmd {
	list := m.list
	ctx := m.ctx
	return func() tea.Msg {
		return deletedMsg{name: p.AppName, err: list.Delete(ctx, p.ID)}
	}
}

func (m Model) exportCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		path, err := a.Export()
		return exportedMsg{path: path, count: len(a.Projects.Projects()), err: err}
	}
}

func (m *Model) handleQuickResume() {
	p, ok := m.currentProject()
	if !ok {
		return
	}
	links := p.QuickResumeLinks()
	if len(links) == 0 {
		m.setMessage(fmt.Sprintf("No links saved for \"%s\"", p.AppName))
		return
	}
	m.setMessage("Resume: " + strings.Join(links, "  "))
}

func (m Model) startFilter() (tea.Model, tea.Cmd) {
	m.mode = ModeFilter
	m.search.SetValue(m.list.Filter())
	m.search.CursorEnd()
	m.search.Focus()
	return m, textinput.Blink
}

// updateFilter applies the search text live as it is typed
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.list.SetFilter("")
		m.mode = ModeNormal
		m.clampCursor()
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = ModeNormal
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.list.SetFilter(m.search.Value())
	m.cursor = 0
	return m, cmd
}
