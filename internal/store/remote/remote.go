// Package remote is the durable store backed by vibetrack-server.
package remote

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/existflow/vibetrack/internal/client"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// Store implements store.Store and store.Notifier over the HTTP API. The
// server scopes every call to the session's user, so the userID arguments
// only need to agree with the signed-in principal.
type Store struct {
	client *client.Client
	poller *store.Poller
	log    *logger.Logger
}

// New creates a remote store
func New(c *client.Client, pollInterval time.Duration) *Store {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}

	s := &Store{
		client: c,
		log:    logger.WithFields(logger.F("store", "remote"), logger.F("server", c.ServerURL())),
	}
	s.poller = store.NewPoller("remote-store", s.version, pollInterval)
	return s
}

// Start begins polling the server's revision counter
func (s *Store) Start(ctx context.Context) {
	s.poller.Start(ctx)
}

// Close stops polling
func (s *Store) Close() error {
	s.poller.Stop()
	return nil
}

// Subscribe implements store.Notifier
func (s *Store) Subscribe(fn func()) func() {
	return s.poller.Subscribe(fn)
}

func (s *Store) version(ctx context.Context) (string, error) {
	rev, err := s.client.Revision(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(rev, 10), nil
}

// ListByOwner implements store.Store
func (s *Store) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		s.log.Warn("list projects failed", logger.F("user", userID), logger.Err(err))
		return nil, fmt.Errorf("list projects: %w", err)
	}

	owned := projects[:0]
	for _, p := range projects {
		if p.UserID == userID {
			owned = append(owned, p)
		}
	}
	store.SortByRecency(owned)
	return owned, nil
}

// Create implements store.Store
func (s *Store) Create(ctx context.Context, userID string, fields model.Fields) (model.Project, error) {
	p, err := s.client.CreateProject(ctx, fields)
	if err != nil {
		s.log.Warn("create project failed", logger.F("user", userID), logger.Err(err))
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.log.Info("project created", logger.F("id", p.ID))
	return p, nil
}

// Update implements store.Store
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	p, err := s.client.UpdateProject(ctx, id, patch)
	if err != nil {
		s.log.Warn("update project failed", logger.F("id", id), logger.Err(err))
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}
	s.log.Info("project updated", logger.F("id", id))
	return p, nil
}

// Delete implements store.Store
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteProject(ctx, id); err != nil {
		s.log.Warn("delete project failed", logger.F("id", id), logger.Err(err))
		return fmt.Errorf("delete project: %w", err)
	}
	s.log.Info("project deleted", logger.F("id", id))
	return nil
}
