package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/vibetrack/internal/app"
	"github.com/existflow/vibetrack/internal/dashboard"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeLogin Mode = iota
	ModeNormal
	ModeForm
	ModeFilter
	ModeConfirmDelete
	ModeHelp
)

// Model is the main TUI model
type Model struct {
	ctx  context.Context
	app  *app.App
	list *dashboard.ProjectList

	// Identity changes and store notifications from background goroutines
	userCh   chan *model.User
	changeCh chan struct{}

	// UI state
	width  int
	height int
	mode   Mode
	cursor int

	search  textinput.Model
	spinner spinner.Model
	login   loginForm
	form    *projectForm

	pendingDelete *model.Project

	message string
	isError bool
}

// NewModel creates the TUI over a, subscribing to its identity and store
// changes until ctx is done.
func NewModel(ctx context.Context, a *app.App) Model {
	logger.Info("Initializing TUI model")

	search := textinput.New()
	search.Placeholder = "app or platform..."
	search.CharLimit = 64
	search.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HelpStyle

	m := Model{
		ctx:      ctx,
		app:      a,
		list:     a.Projects,
		userCh:   make(chan *model.User, 4),
		changeCh: make(chan struct{}, 1),
		mode:     ModeLogin,
		search:   search,
		spinner:  sp,
		login:    newLoginForm(),
	}

	unsubUser := a.Auth.OnChange(func(u *model.User) {
		select {
		case m.userCh <- u:
		case <-ctx.Done():
		}
	})
	unsubStore := a.Store.Subscribe(func() {
		// Coalesce: one pending notification is enough to trigger a reload
		select {
		case m.changeCh <- struct{}{}:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubUser()
		unsubStore()
	}()

	return m
}

// visible returns the filtered projects shown in the list
func (m Model) visible() []model.Project {
	return m.list.Visible()
}

func (m Model) currentProject() (model.Project, bool) {
	projects := m.visible()
	if m.cursor < 0 || m.cursor >= len(projects) {
		return model.Project{}, false
	}
	return projects[m.cursor], true
}

// clampCursor keeps the cursor inside the visible list
func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setMessage(msg string) {
	m.message = msg
	m.isError = false
}

func (m *Model) setError(err error) {
	m.message = err.Error()
	m.isError = true
}
