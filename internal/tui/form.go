package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/vibetrack/internal/editor"
	"github.com/existflow/vibetrack/internal/model"
)

// projectForm edits one project through an editor.Editor
type projectForm struct {
	ed     *editor.Editor
	inputs []textinput.Model // parallel to editor.Fields; the platform slot is unused
	focus  int
	saving bool
}

func newProjectForm(ed *editor.Editor) *projectForm {
	f := &projectForm{
		ed:     ed,
		inputs: make([]textinput.Model, len(editor.Fields)),
	}
	for i, field := range editor.Fields {
		ti := textinput.New()
		ti.CharLimit = 2048
		ti.Width = 48
		ti.Prompt = ""
		ti.SetValue(ed.Get(field))
		if field == editor.LastChatDate {
			ti.Placeholder = "YYYY-MM-DD"
		}
		f.inputs[i] = ti
	}
	f.inputs[0].Focus()
	return f
}

func (f *projectForm) field() editor.Field {
	return editor.Fields[f.focus]
}

func (f *projectForm) move(delta int) {
	f.inputs[f.focus].Blur()
	n := len(editor.Fields)
	f.focus = (f.focus + delta + n) % n
	f.inputs[f.focus].Focus()
}

// stage copies the text inputs into the editor draft
func (f *projectForm) stage() error {
	for i, field := range editor.Fields {
		if field == editor.LLMName {
			continue
		}
		if err := f.ed.Set(field, f.inputs[i].Value()); err != nil {
			return err
		}
	}
	return nil
}

// savedMsg reports the outcome of an editor submit
type savedMsg struct {
	project model.Project
	isNew   bool
	err     error
}

func (m Model) startForm(existing *model.Project) (tea.Model, tea.Cmd) {
	m.form = newProjectForm(m.app.NewEditor(existing))
	m.mode = ModeForm
	return m, textinput.Blink
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f.saving {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Escape):
		f.ed.Close()
		m.form = nil
		m.mode = ModeNormal
		m.setMessage("Cancelled")
		return m, nil

	case key.Matches(msg, keys.Save):
		return m.submitForm()

	case key.Matches(msg, keys.Next):
		f.move(1)
		return m, textinput.Blink

	case key.Matches(msg, keys.Prev):
		f.move(-1)
		return m, textinput.Blink

	case f.field() == editor.LLMName && key.Matches(msg, keys.Left):
		f.ed.CyclePlatform(-1)
		return m, nil

	case f.field() == editor.LLMName && key.Matches(msg, keys.Right):
		f.ed.CyclePlatform(1)
		return m, nil
	}

	if f.field() == editor.LLMName {
		return m, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	if err := f.stage(); err != nil {
		m.setError(err)
		return m, nil
	}

	var user *model.User
	if u, ok := m.list.User(); ok {
		user = &u
	}

	f.saving = true
	ed := f.ed
	ctx := m.ctx
	isNew := ed.IsNew()
	return m, func() tea.Msg {
		p, err := ed.Submit(ctx, user)
		return savedMsg{project: p, isNew: isNew, err: err}
	}
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	m.form.saving = false
	if msg.err != nil {
		// The editor keeps the draft and the error; the form stays open
		return m, nil
	}

	m.form = nil
	m.mode = ModeNormal
	if msg.isNew {
		m.setMessage(fmt.Sprintf("✓ Added \"%s\"", msg.project.AppName))
	} else {
		m.setMessage(fmt.Sprintf("✓ Saved \"%s\"", msg.project.AppName))
	}
	m.selectProject(msg.project.ID)
	return m, nil
}

// selectProject moves the cursor to id if it is visible
func (m *Model) selectProject(id string) {
	for i, p := range m.visible() {
		if p.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m Model) renderForm() string {
	f := m.form
	title := "New Project"
	if existing, ok := f.ed.Existing(); ok {
		title = fmt.Sprintf("Edit: %s", truncate(existing.AppName, 40))
	}

	content := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(title) + "\n\n"

	for i, field := range editor.Fields {
		label := LabelStyle
		if i == f.focus {
			label = FocusedLabelStyle
		}

		var value string
		if field == editor.LLMName {
			value = PlatformStyle.Render("‹ " + f.ed.Get(field) + " ›")
		} else {
			value = f.inputs[i].View()
		}
		content += label.Render(field.Label()) + value + "\n"
	}

	content += "\n"
	switch {
	case f.saving:
		content += m.spinner.View() + " Saving...\n\n"
	case f.ed.Err() != nil:
		content += ErrorStyle.Render(f.ed.Err().Error()) + "\n\n"
	case m.isError && m.message != "":
		content += ErrorStyle.Render(m.message) + "\n\n"
	}

	content += HelpStyle.Render("tab/↓:next  shift+tab/↑:prev  ←/→:platform  ctrl+s:save  esc:cancel")
	return ModalStyle.Width(76).Render(content)
}
