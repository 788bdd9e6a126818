// Package app assembles the vibe client from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/vibetrack/internal/auth"
	"github.com/existflow/vibetrack/internal/config"
	"github.com/existflow/vibetrack/internal/dashboard"
	"github.com/existflow/vibetrack/internal/editor"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
	"github.com/existflow/vibetrack/internal/store/local"
	"github.com/existflow/vibetrack/internal/store/remote"
)

// Backend is a project store that announces changes
type Backend interface {
	store.Store
	store.Notifier
	Start(ctx context.Context)
	Close() error
}

// Identity is an auth provider with a lifecycle
type Identity interface {
	auth.Provider
	Start(ctx context.Context)
	Close() error
}

// App holds the wired client components
type App struct {
	Config   *config.Config
	Store    Backend
	Auth     Identity
	Projects *dashboard.ProjectList
	Now      func() time.Time
}

// Option adjusts how New assembles the client
type Option func(*options)

type options struct {
	tokens auth.IDTokenSource
}

// WithIDTokenSource overrides the configured ID token command for
// federated sign-in against the server.
func WithIDTokenSource(src auth.IDTokenSource) Option {
	return func(o *options) { o.tokens = src }
}

// New builds the store and auth provider selected by cfg.Backend
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sessions := auth.NewSessionFile(cfg.SessionPath)

	var (
		backend  Backend
		identity Identity
	)
	switch cfg.Backend {
	case config.BackendRemote:
		tokens := o.tokens
		if tokens == nil && cfg.IDTokenCommand != "" {
			tokens = auth.CommandToken(cfg.IDTokenCommand)
		}
		r := auth.NewRemote(cfg.ServerURL, sessions, cfg.PollInterval, tokens)
		identity = r
		backend = remote.New(r.Client(), cfg.PollInterval)
	default:
		s, err := local.Open(cfg.DBPath, local.Options{PollInterval: cfg.PollInterval})
		if err != nil {
			return nil, fmt.Errorf("open project store: %w", err)
		}
		backend = s
		identity = auth.NewLocal(sessions, cfg.PollInterval)
	}

	logger.Info("client assembled", logger.F("backend", cfg.Backend))
	return NewWith(cfg, backend, identity), nil
}

// NewWith assembles an app around existing components
func NewWith(cfg *config.Config, backend Backend, identity Identity) *App {
	return &App{
		Config:   cfg,
		Store:    backend,
		Auth:     identity,
		Projects: dashboard.New(backend),
		Now:      time.Now,
	}
}

// Start begins change notification for the store and the session
func (a *App) Start(ctx context.Context) {
	a.Store.Start(ctx)
	a.Auth.Start(ctx)
}

// Close stops both components
func (a *App) Close() error {
	return errors.Join(a.Auth.Close(), a.Store.Close())
}

// RequireUser returns the signed-in user or model.ErrUnauthenticated
func (a *App) RequireUser() (model.User, error) {
	u, ok := a.Auth.CurrentUser()
	if !ok {
		return model.User{}, fmt.Errorf("run 'vibe auth login' first: %w", model.ErrUnauthenticated)
	}
	return u, nil
}

// Load points the project list at the signed-in user and fetches it
func (a *App) Load(ctx context.Context) error {
	u, err := a.RequireUser()
	if err != nil {
		return err
	}
	return a.Projects.Fetch(ctx, a.Projects.SetUser(&u))
}

// NewEditor opens the project form. Saving refreshes the list.
func (a *App) NewEditor(existing *model.Project) *editor.Editor {
	return editor.Open(existing, editor.Options{
		Store:     a.Store,
		Platforms: a.Config.Platforms,
		Now:       a.Now,
		OnSaved: func(ctx context.Context, p model.Project) {
			if err := a.Projects.Refresh(ctx); err != nil {
				logger.Warn("refresh after save failed", logger.Err(err))
			}
		},
	})
}

// Export writes the loaded projects as CSV into the configured directory
func (a *App) Export() (string, error) {
	return a.Projects.WriteExport(a.Config.ExportDir, a.Now())
}
