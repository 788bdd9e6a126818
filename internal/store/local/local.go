// Package local is the single-machine store: a SQLite file shared by every
// vibe process of the same OS user.
package local

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/vibetrack/internal/db"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// Store implements store.Store and store.Notifier over SQLite
type Store struct {
	db     *db.DB
	clock  *store.Clock
	poller *store.Poller
	log    *logger.Logger
}

// Options tune a local store
type Options struct {
	PollInterval time.Duration
	Now          func() time.Time
}

// Open opens the database at path and prepares change notification. Call
// Start to begin watching for changes made by other processes.
func Open(path string, opts Options) (*Store, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return New(database, opts), nil
}

// New wraps an open database
func New(database *db.DB, opts Options) *Store {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}

	s := &Store{
		db:    database,
		clock: &store.Clock{Now: opts.Now},
		log:   logger.WithFields(logger.F("store", "local")),
	}
	s.poller = store.NewPoller("local-store", s.version, opts.PollInterval)
	return s
}

// Start begins change notification. Watch failures fall back to polling.
func (s *Store) Start(ctx context.Context) {
	if err := s.poller.Watch(filepath.Dir(s.db.Path())); err != nil {
		s.log.Warn("cannot watch database directory, polling only", logger.Err(err))
	}
	s.poller.Start(ctx)
}

// Close stops notification and closes the database
func (s *Store) Close() error {
	s.poller.Stop()
	return s.db.Close()
}

// Subscribe implements store.Notifier
func (s *Store) Subscribe(fn func()) func() {
	return s.poller.Subscribe(fn)
}

func (s *Store) version(ctx context.Context) (string, error) {
	rev, err := s.db.Revision(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(rev, 10), nil
}

// ListByOwner implements store.Store
func (s *Store) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := s.db.ListProjectsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %v: %w", err, model.ErrUnavailable)
	}
	return projects, nil
}

// Create implements store.Store
func (s *Store) Create(ctx context.Context, userID string, fields model.Fields) (model.Project, error) {
	var created model.Project

	err := s.db.InTx(ctx, func(q *db.Queries) error {
		floor, err := q.MaxUpdatedAt(ctx)
		if err != nil {
			return err
		}

		created = model.NewProject(uuid.New().String(), userID, fields, s.clock.Stamp(floor))
		if err := q.InsertProject(ctx, created); err != nil {
			return err
		}
		return q.BumpRevision(ctx)
	})
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %v: %w", err, model.ErrUnavailable)
	}

	s.log.Info("project created", logger.F("id", created.ID), logger.F("user", userID))
	return created, nil
}

// Update implements store.Store
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	var updated model.Project

	err := s.db.InTx(ctx, func(q *db.Queries) error {
		p, err := q.GetProject(ctx, id)
		if err != nil {
			return err
		}

		floor, err := q.MaxUpdatedAt(ctx)
		if err != nil {
			return err
		}

		patch.Apply(&p)
		p.LastUpdatedAt = s.clock.Stamp(floor)
		if err := q.UpdateProject(ctx, p); err != nil {
			return err
		}
		updated = p
		return q.BumpRevision(ctx)
	})
	if err != nil {
		return model.Project{}, wrapMutation("update", err)
	}

	s.log.Info("project updated", logger.F("id", id))
	return updated, nil
}

// Delete implements store.Store
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.InTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteProject(ctx, id); err != nil {
			return err
		}
		return q.BumpRevision(ctx)
	})
	if err != nil {
		return wrapMutation("delete", err)
	}

	s.log.Info("project deleted", logger.F("id", id))
	return nil
}

func wrapMutation(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s project: %v: %w", op, err, model.ErrUnavailable)
}
