package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/vibetrack/internal/auth"
	"github.com/existflow/vibetrack/internal/model"
)

// loginForm is the signed-out screen
type loginForm struct {
	email    textinput.Model
	password textinput.Model
	busy     bool
	err      string
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 36

	return loginForm{email: email, password: password}
}

func (f *loginForm) reset() {
	f.email.SetValue("")
	f.password.SetValue("")
	f.busy = false
	f.err = ""
	f.email.Focus()
	f.password.Blur()
}

func (f *loginForm) toggleFocus() {
	if f.email.Focused() {
		f.email.Blur()
		f.password.Focus()
	} else {
		f.password.Blur()
		f.email.Focus()
	}
}

type authAction int

const (
	actionSignIn authAction = iota
	actionRegister
	actionGoogle
)

// authDoneMsg reports the outcome of a sign-in attempt. The identity change
// itself arrives separately as userChangedMsg.
type authDoneMsg struct {
	user model.User
	err  error
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.login.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Escape):
		return m, tea.Quit

	case msg.String() == "tab", msg.String() == "shift+tab", msg.String() == "up", msg.String() == "down":
		m.login.toggleFocus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Submit):
		return m.startAuth(actionSignIn)

	case key.Matches(msg, keys.Register):
		return m.startAuth(actionRegister)

	case key.Matches(msg, keys.Google):
		return m.startAuth(actionGoogle)
	}

	var cmd tea.Cmd
	if m.login.email.Focused() {
		m.login.email, cmd = m.login.email.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m Model) startAuth(action authAction) (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.login.email.Value())
	password := m.login.password.Value()

	m.login.busy = true
	m.login.err = ""

	provider := m.app.Auth
	ctx := m.ctx
	return m, func() tea.Msg {
		var (
			u   model.User
			err error
		)
		switch action {
		case actionRegister:
			u, err = provider.RegisterWithPassword(ctx, email, password)
		case actionGoogle:
			u, err = provider.SignInWithFederatedProvider(ctx)
		default:
			u, err = provider.SignInWithPassword(ctx, email, password)
		}
		return authDoneMsg{user: u, err: err}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		m.login.err = describeAuthError(msg.err)
		m.login.password.SetValue("")
		return m, nil
	}
	m.login.err = ""
	m.setMessage(fmt.Sprintf("Signed in as %s", msg.user.Label()))
	return m, nil
}

// describeAuthError maps provider failures to what the login screen says
func describeAuthError(err error) string {
	var authErr *model.AuthError
	if !errors.As(err, &authErr) {
		return err.Error()
	}
	if reason := auth.ServerReason(err); reason != "" {
		return reason
	}
	switch authErr.Kind {
	case model.AuthInvalidCredentials:
		return "Invalid email or password."
	case model.AuthPopupBlocked:
		return "Google sign-in is not available. Set id_token_command in the config."
	case model.AuthCancelled:
		return "Google sign-in was cancelled."
	case model.AuthNetwork:
		return "Could not reach the server. Check your connection."
	}
	return err.Error()
}

func (m Model) renderLogin() string {
	content := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Vibe Tracker") + "\n"
	content += HelpStyle.Render("Sign in to see your projects") + "\n\n"

	emailLabel, passwordLabel := LabelStyle, LabelStyle
	if m.login.email.Focused() {
		emailLabel = FocusedLabelStyle
	} else {
		passwordLabel = FocusedLabelStyle
	}
	content += emailLabel.Width(10).Render("Email") + m.login.email.View() + "\n"
	content += passwordLabel.Width(10).Render("Password") + m.login.password.View() + "\n\n"

	switch {
	case m.login.busy:
		content += m.spinner.View() + " Signing in...\n\n"
	case m.login.err != "":
		content += ErrorStyle.Render(m.login.err) + "\n\n"
	}

	content += HelpStyle.Render("enter:sign in  ctrl+r:create account  ctrl+g:Google  tab:switch  esc:quit")

	box := ModalStyle.Width(60).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// signedOutMsg reports the outcome of SignOut
type signedOutMsg struct{ err error }

func signOutCmd(ctx context.Context, m Model) tea.Cmd {
	provider := m.app.Auth
	return func() tea.Msg {
		return signedOutMsg{err: provider.SignOut(ctx)}
	}
}
