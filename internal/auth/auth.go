// Package auth provides the identity providers used by the vibe client.
package auth

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// Provider issues and tracks the signed-in principal
type Provider interface {
	// CurrentUser returns the signed-in user, if any
	CurrentUser() (model.User, bool)
	// OnChange calls fn with the current user now and after every change;
	// nil means signed out.
	OnChange(fn func(*model.User)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (model.User, error)
	RegisterWithPassword(ctx context.Context, email, password string) (model.User, error)
	SignInWithFederatedProvider(ctx context.Context) (model.User, error)
	SignOut(ctx context.Context) error
}

// sessionState is the part both providers share: the current session,
// its file, and the observers.
type sessionState struct {
	backend string
	file    *SessionFile
	poller  *store.Poller
	log     *logger.Logger

	mu        sync.Mutex
	current   *Session
	observers map[int]func(*model.User)
	nextID    int
}

func newSessionState(backend string, file *SessionFile, pollInterval time.Duration) *sessionState {
	s := &sessionState{
		backend:   backend,
		file:      file,
		log:       logger.WithFields(logger.F("auth", backend)),
		observers: make(map[int]func(*model.User)),
	}

	if sess, ok, err := file.Load(backend); err != nil {
		s.log.Warn("ignoring unreadable session", logger.Err(err))
	} else if ok {
		s.current = sess
	}

	s.poller = store.NewPoller("session", func(ctx context.Context) (string, error) {
		return file.raw()
	}, pollInterval)
	s.poller.Subscribe(s.reload)
	return s
}

// start watches the session file for sign-in/out by other processes
func (s *sessionState) start(ctx context.Context) {
	if err := os.MkdirAll(s.file.Dir(), 0700); err != nil {
		s.log.Debug("cannot create session directory", logger.Err(err))
	}
	if err := s.poller.Watch(s.file.Dir()); err != nil {
		s.log.Debug("cannot watch session directory, polling only", logger.Err(err))
	}
	s.poller.Start(ctx)
	s.reload()
}

func (s *sessionState) stop() {
	s.poller.Stop()
}

func (s *sessionState) user() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.User{}, false
	}
	return s.current.User, true
}

func (s *sessionState) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

func (s *sessionState) onChange(fn func(*model.User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	var u *model.User
	if s.current != nil {
		cur := s.current.User
		u = &cur
	}
	s.mu.Unlock()

	fn(u)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// set replaces the session, persists it and notifies observers if the
// principal changed. nil signs out.
func (s *sessionState) set(sess *Session) error {
	if sess != nil {
		sess.Backend = s.backend
		if err := s.file.Save(*sess); err != nil {
			return err
		}
	} else if err := s.file.Clear(); err != nil {
		return err
	}
	s.apply(sess)
	return nil
}

// reload picks up a session written by another process
func (s *sessionState) reload() {
	sess, _, err := s.file.Load(s.backend)
	if err != nil {
		s.log.Warn("ignoring unreadable session", logger.Err(err))
		return
	}
	s.apply(sess)
}

func (s *sessionState) apply(sess *Session) {
	s.mu.Lock()
	prev := s.current
	s.current = sess
	changed := uid(prev) != uid(sess)
	observers := make([]func(*model.User), 0, len(s.observers))
	if changed {
		for _, fn := range s.observers {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	var u *model.User
	if sess != nil {
		cur := sess.User
		u = &cur
		s.log.Info("signed in", logger.F("uid", cur.UID))
	} else {
		s.log.Info("signed out")
	}
	for _, fn := range observers {
		fn(u)
	}
}

func uid(s *Session) string {
	if s == nil {
		return ""
	}
	return s.User.UID
}
