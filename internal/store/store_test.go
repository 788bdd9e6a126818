package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/model"
)

func TestSortByRecency(t *testing.T) {
	projects := []model.Project{
		{ID: "b", LastUpdatedAt: 10},
		{ID: "c", LastUpdatedAt: 30},
		{ID: "a", LastUpdatedAt: 10},
	}

	SortByRecency(projects)

	assert.Equal(t, "c", projects[0].ID)
	assert.Equal(t, "a", projects[1].ID)
	assert.Equal(t, "b", projects[2].ID)
}

func TestFindByPrefix(t *testing.T) {
	projects := []model.Project{
		{ID: "abc123"},
		{ID: "abd456"},
		{ID: "ab"},
	}

	p, err := FindByPrefix(projects, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", p.ID)

	p, err = FindByPrefix(projects, "ab")
	require.NoError(t, err, "an exact match wins over prefixes")
	assert.Equal(t, "ab", p.ID)

	_, err = FindByPrefix(projects[:2], "ab")
	assert.ErrorIs(t, err, model.ErrInvalid)

	_, err = FindByPrefix(projects, "zz")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClockStampIsStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1000)
	c := &Clock{Now: func() time.Time { return fixed }}

	assert.Equal(t, int64(1000), c.Stamp(0))
	assert.Equal(t, int64(1001), c.Stamp(0))
	assert.Equal(t, int64(5001), c.Stamp(5000))
}

func TestPollerNotifiesOnlyWhenVersionMoves(t *testing.T) {
	var version atomic.Int64
	p := NewPoller("test", func(ctx context.Context) (string, error) {
		return strconv.FormatInt(version.Load(), 10), nil
	}, time.Hour)

	var calls atomic.Int32
	unsubscribe := p.Subscribe(func() { calls.Add(1) })

	ctx := context.Background()
	assert.False(t, p.Check(ctx), "first check only records the baseline")
	assert.False(t, p.Check(ctx))

	version.Store(1)
	assert.True(t, p.Check(ctx))
	assert.Equal(t, int32(1), calls.Load())

	unsubscribe()
	version.Store(2)
	assert.True(t, p.Check(ctx))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollerIgnoresFailedChecks(t *testing.T) {
	fail := true
	p := NewPoller("test", func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("offline")
		}
		return "v1", nil
	}, time.Hour)

	assert.False(t, p.Check(context.Background()))
	fail = false
	assert.False(t, p.Check(context.Background()), "baseline is taken from the first successful check")
}

func TestPollerIntervalFiresSubscribers(t *testing.T) {
	var version atomic.Int64
	p := NewPoller("test", func(ctx context.Context) (string, error) {
		return strconv.FormatInt(version.Load(), 10), nil
	}, 10*time.Millisecond)

	fired := make(chan struct{}, 1)
	p.Subscribe(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	p.Start(context.Background())
	defer p.Stop()

	version.Store(1)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber was not notified")
	}
}

func TestPollerWatchTriggersOnFileEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state")

	p := NewPoller("test", func(ctx context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return string(data), err
	}, time.Hour)
	require.NoError(t, p.Watch(dir))

	fired := make(chan struct{}, 1)
	p.Subscribe(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	p.Start(context.Background())
	defer p.Stop()

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0600))
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("file event did not trigger a check")
	}
}
