// Package dashboard holds the signed-in user's project list as shown by the
// terminal client.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// Ticket identifies one list fetch. Only the newest ticket is applied.
type Ticket struct {
	seq    uint64
	userID string
}

// UserID returns the owner the fetch is for
func (t Ticket) UserID() string { return t.userID }

// Valid reports whether the ticket belongs to a signed-in user
func (t Ticket) Valid() bool { return t.userID != "" }

// ProjectList is the view model behind the dashboard. It is safe for
// concurrent use.
type ProjectList struct {
	store store.Store
	log   *logger.Logger

	mu       sync.Mutex
	user     *model.User
	projects []model.Project
	filter   string
	err      error
	seq      uint64
	pending  bool
}

// New creates an empty list backed by s
func New(s store.Store) *ProjectList {
	return &ProjectList{
		store: s,
		log:   logger.WithFields(logger.F("component", "dashboard")),
	}
}

// SetUser switches the list to u. nil clears it; otherwise a load is begun
// and its ticket returned for the caller to Fetch.
func (l *ProjectList) SetUser(u *model.User) Ticket {
	l.mu.Lock()
	if u == nil {
		l.user = nil
		l.projects = nil
		l.err = nil
		l.seq++
		l.pending = false
		l.mu.Unlock()
		return Ticket{}
	}
	cur := *u
	l.user = &cur
	l.projects = nil
	l.err = nil
	l.mu.Unlock()

	return l.BeginLoad()
}

// User returns the current user, if any
func (l *ProjectList) User() (model.User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.user == nil {
		return model.User{}, false
	}
	return *l.user, true
}

// BeginLoad starts a fetch and supersedes any outstanding one
func (l *ProjectList) BeginLoad() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.user == nil {
		return Ticket{}
	}
	l.seq++
	l.pending = true
	return Ticket{seq: l.seq, userID: l.user.UID}
}

// ApplyLoad installs the result of t's fetch. Results of superseded
// tickets are dropped and ApplyLoad returns false.
func (l *ProjectList) ApplyLoad(t Ticket, projects []model.Project, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !t.Valid() || t.seq != l.seq || l.user == nil || l.user.UID != t.userID {
		return false
	}

	l.pending = false
	if err != nil {
		l.projects = nil
		l.err = err
		l.log.Warn("project load failed", logger.F("user", t.userID), logger.Err(err))
		return true
	}

	l.projects = append([]model.Project(nil), projects...)
	l.err = nil
	return true
}

// Fetch lists t's projects from the store and applies the result
func (l *ProjectList) Fetch(ctx context.Context, t Ticket) error {
	if !t.Valid() {
		return nil
	}
	projects, err := l.store.ListByOwner(ctx, t.userID)
	l.ApplyLoad(t, projects, err)
	return err
}

// Refresh reloads the list from the store
func (l *ProjectList) Refresh(ctx context.Context) error {
	return l.Fetch(ctx, l.BeginLoad())
}

// Loading reports whether a fetch is outstanding
func (l *ProjectList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Err returns the error of the last load, if it failed
func (l *ProjectList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Projects returns the full, unfiltered snapshot
func (l *ProjectList) Projects() []model.Project {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Project(nil), l.projects...)
}

// SetFilter sets the search text
func (l *ProjectList) SetFilter(text string) {
	l.mu.Lock()
	l.filter = text
	l.mu.Unlock()
}

// Filter returns the search text
func (l *ProjectList) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Visible returns the snapshot filtered by app or platform name
func (l *ProjectList) Visible() []model.Project {
	l.mu.Lock()
	defer l.mu.Unlock()

	visible := make([]model.Project, 0, len(l.projects))
	for _, p := range l.projects {
		if p.Matches(l.filter) {
			visible = append(visible, p)
		}
	}
	return visible
}

// Find returns the snapshot entry with id
func (l *ProjectList) Find(id string) (model.Project, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// Delete removes a project and reloads. A project that is already gone
// counts as deleted.
func (l *ProjectList) Delete(ctx context.Context, id string) error {
	if _, ok := l.User(); !ok {
		return model.ErrUnauthenticated
	}

	err := l.store.Delete(ctx, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		l.log.Info("project already deleted", logger.F("id", id))
	case err != nil:
		return fmt.Errorf("delete %s: %w", id, err)
	}

	return l.Refresh(ctx)
}
