package store

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/existflow/vibetrack/internal/logger"
)

// VersionFunc returns an opaque token that changes whenever the watched
// data changes.
type VersionFunc func(ctx context.Context) (string, error)

// Poller calls its subscribers when the version token moves. It checks on
// a fixed interval and, when directories are watched, on every file event.
type Poller struct {
	version  VersionFunc
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	subs    map[int]func()
	nextID  int
	last    string
	primed  bool
	started bool

	checkMu sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    sync.WaitGroup
}

// NewPoller creates a poller. It does nothing until Start.
func NewPoller(name string, version VersionFunc, interval time.Duration) *Poller {
	return &Poller{
		version:  version,
		interval: interval,
		log:      logger.WithFields(logger.F("poller", name)),
		subs:     make(map[int]func()),
		stopCh:   make(chan struct{}),
	}
}

// Watch adds a directory whose file events trigger an immediate check.
// Must be called before Start.
func (p *Poller) Watch(dir string) error {
	if p.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		p.watcher = w
	}
	return p.watcher.Add(dir)
}

// Subscribe registers fn to run after each observed change
func (p *Poller) Subscribe(fn func()) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Start records the current version and begins polling
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.Check(ctx)

	p.done.Add(1)
	go p.pollLoop(ctx)

	if p.watcher != nil {
		p.done.Add(1)
		go p.watchLoop(ctx)
	}
}

// Stop halts polling and waits for the loops to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopCh)
	if p.watcher != nil {
		p.watcher.Close()
	}
	p.done.Wait()
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.done.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Check(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) watchLoop(ctx context.Context) {
	defer p.done.Done()

	for {
		select {
		case _, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.Check(ctx)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("file watch error", logger.Err(err))
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Check reads the version now and notifies subscribers if it moved. The
// first successful check only records the baseline. It reports whether
// subscribers were notified.
func (p *Poller) Check(ctx context.Context) bool {
	p.checkMu.Lock()
	defer p.checkMu.Unlock()

	v, err := p.version(ctx)
	if err != nil {
		p.log.Debug("version check failed", logger.Err(err))
		return false
	}

	p.mu.Lock()
	changed := p.primed && v != p.last
	p.last = v
	p.primed = true
	subs := make([]func(), 0, len(p.subs))
	if changed {
		for _, fn := range p.subs {
			subs = append(subs, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return changed
}
