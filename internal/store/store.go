package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/existflow/vibetrack/internal/model"
)

// Store persists projects. Both backends share this contract.
type Store interface {
	// ListByOwner returns the owner's projects, most recently updated first
	ListByOwner(ctx context.Context, userID string) ([]model.Project, error)
	// Create stores a new project owned by userID
	Create(ctx context.Context, userID string, fields model.Fields) (model.Project, error)
	// Update merges patch into the project; model.ErrNotFound if it is gone
	Update(ctx context.Context, id string, patch model.Patch) (model.Project, error)
	// Delete removes the project; model.ErrNotFound if it is already gone
	Delete(ctx context.Context, id string) error
}

// Notifier announces that the store contents may have changed
type Notifier interface {
	Subscribe(fn func()) (unsubscribe func())
}

// SortByRecency orders projects by LastUpdatedAt descending, then id
func SortByRecency(projects []model.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].LastUpdatedAt != projects[j].LastUpdatedAt {
			return projects[i].LastUpdatedAt > projects[j].LastUpdatedAt
		}
		return projects[i].ID < projects[j].ID
	})
}

// FindByPrefix resolves a full id or an unambiguous id prefix
func FindByPrefix(projects []model.Project, ref string) (model.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Project{}, fmt.Errorf("empty project id: %w", model.ErrInvalid)
	}

	var matches []model.Project
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return model.Project{}, fmt.Errorf("project %s: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Project{}, fmt.Errorf("project id %q matches %d projects: %w", ref, len(matches), model.ErrInvalid)
	}
}

// Clock issues strictly increasing millisecond timestamps
type Clock struct {
	mu   sync.Mutex
	last int64
	Now  func() time.Time
}

// Stamp returns max(now, floor+1, last+1) and remembers it. floor is the
// newest timestamp already persisted by another writer.
func (c *Clock) Stamp(floor int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	ts := now().UnixMilli()
	if ts <= floor {
		ts = floor + 1
	}
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
