// Package editor implements the create/edit form for a single project.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// Field names an editable project field by its JSON name
type Field string

const (
	AppName            Field = "appName"
	LLMName            Field = "llmName"
	ChatThreadTitle    Field = "chatThreadTitle"
	ChatThreadURL      Field = "chatThreadUrl"
	LastChatDate       Field = "lastChatDate"
	AppURL             Field = "appUrl"
	VSCodeURL          Field = "vscodeUrl"
	GitHubRef          Field = "githubRef"
	FirebaseRulesURL   Field = "firebaseRulesUrl"
	LastSolvedProblem  Field = "lastSolvedProblem"
	NextProblemToSolve Field = "nextProblemToSolve"
	Notes              Field = "notes"
)

// Fields lists the form fields in display order
var Fields = []Field{
	AppName, LLMName, ChatThreadTitle, ChatThreadURL, LastChatDate,
	AppURL, VSCodeURL, GitHubRef, FirebaseRulesURL,
	LastSolvedProblem, NextProblemToSolve, Notes,
}

var labels = map[Field]string{
	AppName:            "App name",
	LLMName:            "Platform",
	ChatThreadTitle:    "Chat thread title",
	ChatThreadURL:      "Chat thread URL",
	LastChatDate:       "Last chat date",
	AppURL:             "App URL",
	VSCodeURL:          "VS Code URL",
	GitHubRef:          "GitHub",
	FirebaseRulesURL:   "Firebase rules",
	LastSolvedProblem:  "Last solved problem",
	NextProblemToSolve: "Next problem to solve",
	Notes:              "Notes",
}

// Label returns the human-readable name of f
func (f Field) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// ParseField resolves a JSON field name
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q: %w", name, model.ErrInvalid)
}

// ErrClosed is returned when submitting an editor that was already closed
var ErrClosed = errors.New("editor is closed")

// Options configure an editor
type Options struct {
	Store     store.Store
	Platforms []string
	Now       func() time.Time
	// OnSaved runs after a successful save, before the editor closes
	OnSaved func(ctx context.Context, saved model.Project)
}

// Editor holds the draft of one project
type Editor struct {
	opts     Options
	existing *model.Project
	draft    model.Fields
	err      error
	open     bool
	log      *logger.Logger
}

// Open starts editing existing, or a new project when existing is nil
func Open(existing *model.Project, opts Options) *Editor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = model.DefaultPlatforms
	}

	e := &Editor{
		opts: opts,
		open: true,
		log:  logger.WithFields(logger.F("component", "editor")),
	}

	if existing != nil {
		cur := *existing
		e.existing = &cur
		e.draft = cur.Fields()
		e.draft.LastChatDate = model.NormalizeChatDate(cur.LastChatDate, opts.Now())
	} else {
		e.draft = model.Fields{
			LLMName:      opts.Platforms[0],
			LastChatDate: model.Today(opts.Now()).String(),
		}
	}
	return e
}

// IsNew reports whether the editor creates a project
func (e *Editor) IsNew() bool { return e.existing == nil }

// Existing returns the project being edited, if any
func (e *Editor) Existing() (model.Project, bool) {
	if e.existing == nil {
		return model.Project{}, false
	}
	return *e.existing, true
}

// IsOpen reports whether the editor has not been closed
func (e *Editor) IsOpen() bool { return e.open }

// Close discards the draft
func (e *Editor) Close() { e.open = false }

// Err returns the last submit failure
func (e *Editor) Err() error { return e.err }

// Draft returns the staged fields
func (e *Editor) Draft() model.Fields { return e.draft }

// Platforms returns the platform options
func (e *Editor) Platforms() []string { return e.opts.Platforms }

// Get returns the draft value of f
func (e *Editor) Get(f Field) string {
	if p := e.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set stages a new value for f
func (e *Editor) Set(f Field, value string) error {
	p := e.ptr(f)
	if p == nil {
		return fmt.Errorf("unknown field %q: %w", f, model.ErrInvalid)
	}
	*p = value
	return nil
}

// CyclePlatform moves the platform by delta through the options
func (e *Editor) CyclePlatform(delta int) {
	opts := e.opts.Platforms
	idx := -1
	for i, p := range opts {
		if p == e.draft.LLMName {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
		if delta > 0 {
			delta--
		}
	}
	n := len(opts)
	e.draft.LLMName = opts[((idx+delta)%n+n)%n]
}

func (e *Editor) ptr(f Field) *string {
	d := &e.draft
	switch f {
	case AppName:
		return &d.AppName
	case LLMName:
		return &d.LLMName
	case ChatThreadTitle:
		return &d.ChatThreadTitle
	case ChatThreadURL:
		return &d.ChatThreadURL
	case LastChatDate:
		return &d.LastChatDate
	case AppURL:
		return &d.AppURL
	case VSCodeURL:
		return &d.VSCodeURL
	case GitHubRef:
		return &d.GitHubRef
	case FirebaseRulesURL:
		return &d.FirebaseRulesURL
	case LastSolvedProblem:
		return &d.LastSolvedProblem
	case NextProblemToSolve:
		return &d.NextProblemToSolve
	case Notes:
		return &d.Notes
	}
	return nil
}

// Validate checks the required fields and the date
func (e *Editor) Validate() error {
	for _, f := range []Field{AppName, LLMName, ChatThreadTitle, ChatThreadURL} {
		if strings.TrimSpace(e.Get(f)) == "" {
			return &model.ValidationError{Field: string(f), Message: f.Label() + " is required"}
		}
	}
	if _, err := model.ParseChatDate(e.draft.LastChatDate); err != nil {
		return &model.ValidationError{Field: string(LastChatDate), Message: "Last chat date must be YYYY-MM-DD"}
	}
	return nil
}

// Submit saves the draft as user. On failure the error is kept in Err and
// the editor stays open with the draft intact.
func (e *Editor) Submit(ctx context.Context, user *model.User) (model.Project, error) {
	saved, err := e.submit(ctx, user)
	e.err = err
	if err != nil {
		e.log.Warn("save failed", logger.Err(err))
		return model.Project{}, err
	}

	if e.opts.OnSaved != nil {
		e.opts.OnSaved(ctx, saved)
	}
	e.open = false
	return saved, nil
}

func (e *Editor) submit(ctx context.Context, user *model.User) (model.Project, error) {
	if !e.open {
		return model.Project{}, ErrClosed
	}
	if user == nil {
		return model.Project{}, fmt.Errorf("you must be logged in to save a project: %w", model.ErrUnauthenticated)
	}
	if err := e.Validate(); err != nil {
		return model.Project{}, err
	}

	fields := e.draft
	date, _ := model.ParseChatDate(fields.LastChatDate)
	fields.LastChatDate = date.String()

	if e.existing == nil {
		p, err := e.opts.Store.Create(ctx, user.UID, fields)
		if err != nil {
			return model.Project{}, err
		}
		e.log.Info("project saved", logger.F("id", p.ID), logger.F("new", true))
		return p, nil
	}

	p, err := e.opts.Store.Update(ctx, e.existing.ID, fields.Patch())
	if err != nil {
		return model.Project{}, err
	}
	e.log.Info("project saved", logger.F("id", p.ID), logger.F("new", false))
	return p, nil
}
