package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

// memStore is an in-memory store.Store for view model tests
type memStore struct {
	mu        sync.Mutex
	projects  map[string]model.Project
	listErr   error
	deleteErr error
	lists     int
}

func newMemStore(projects ...model.Project) *memStore {
	m := &memStore{projects: map[string]model.Project{}}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *memStore) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []model.Project{}
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	store.SortByRecency(out)
	return out, nil
}

func (m *memStore) Create(ctx context.Context, userID string, f model.Fields) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.NewProject("p"+string(rune('a'+len(m.projects))), userID, f, int64(100+len(m.projects)))
	m.projects[p.ID] = p
	return p, nil
}

func (m *memStore) Update(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return model.Project{}, model.ErrNotFound
	}
	patch.Apply(&p)
	m.projects[id] = p
	return p, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.projects[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

var ada = &model.User{UID: "uid_ada", Email: "ada@example.com", DisplayName: "ada"}

func sampleProjects() []model.Project {
	return []model.Project{
		{ID: "p1", UserID: "uid_ada", AppName: "Recipe Box", LLMName: "Claude", LastUpdatedAt: 300},
		{ID: "p2", UserID: "uid_ada", AppName: "Budget Bot", LLMName: "ChatGPT", LastUpdatedAt: 200},
		{ID: "p3", UserID: "uid_ada", AppName: "Trail Map", LLMName: "Gemini", LastUpdatedAt: 100},
		{ID: "x1", UserID: "uid_bob", AppName: "Not Mine", LLMName: "Claude", LastUpdatedAt: 400},
	}
}

func loadedList(t *testing.T, m *memStore) *ProjectList {
	t.Helper()
	l := New(m)
	require.NoError(t, l.Fetch(context.Background(), l.SetUser(ada)))
	return l
}

func TestSetUserLoadsOwnProjects(t *testing.T) {
	l := loadedList(t, newMemStore(sampleProjects()...))

	projects := l.Projects()
	require.Len(t, projects, 3)
	assert.Equal(t, "p1", projects[0].ID)
	assert.False(t, l.Loading())

	l.SetUser(nil)
	assert.Empty(t, l.Projects())
	_, ok := l.User()
	assert.False(t, ok)
}

func TestLastResponseWins(t *testing.T) {
	l := New(newMemStore())
	first := l.SetUser(ada)
	second := l.BeginLoad()
	assert.True(t, l.Loading())

	assert.True(t, l.ApplyLoad(second, []model.Project{{ID: "new"}}, nil))
	assert.False(t, l.ApplyLoad(first, []model.Project{{ID: "stale"}}, nil))

	require.Len(t, l.Projects(), 1)
	assert.Equal(t, "new", l.Projects()[0].ID)
	assert.False(t, l.Loading())
}

func TestLoadForPreviousUserIsDropped(t *testing.T) {
	l := New(newMemStore())
	stale := l.SetUser(ada)
	l.SetUser(nil)

	assert.False(t, l.ApplyLoad(stale, []model.Project{{ID: "p1"}}, nil))
	assert.Empty(t, l.Projects())
}

func TestFailedLoadLeavesListEmpty(t *testing.T) {
	m := newMemStore(sampleProjects()...)
	l := loadedList(t, m)

	m.listErr = model.ErrUnavailable
	err := l.Refresh(context.Background())
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.ErrorIs(t, l.Err(), model.ErrUnavailable)
	assert.Empty(t, l.Projects())
}

func TestFilterIsCaseInsensitiveOnNameOrPlatform(t *testing.T) {
	m := newMemStore(sampleProjects()...)
	l := loadedList(t, m)
	lists := m.lists

	l.SetFilter("BOX")
	require.Len(t, l.Visible(), 1)
	assert.Equal(t, "p1", l.Visible()[0].ID)

	l.SetFilter("gem")
	require.Len(t, l.Visible(), 1)
	assert.Equal(t, "p3", l.Visible()[0].ID)

	l.SetFilter("")
	assert.Len(t, l.Visible(), 3)
	assert.Equal(t, lists, m.lists, "filtering never re-fetches")
}

func TestDeleteRefreshes(t *testing.T) {
	m := newMemStore(sampleProjects()...)
	l := loadedList(t, m)

	require.NoError(t, l.Delete(context.Background(), "p2"))
	assert.Len(t, l.Projects(), 2)

	require.NoError(t, l.Delete(context.Background(), "p2"), "already gone counts as deleted")
}

func TestFailedDeleteKeepsSnapshot(t *testing.T) {
	m := newMemStore(sampleProjects()...)
	l := loadedList(t, m)

	m.deleteErr = model.ErrUnavailable
	err := l.Delete(context.Background(), "p2")
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.Len(t, l.Projects(), 3)
}

func TestExportIgnoresFilter(t *testing.T) {
	projects := []model.Project{
		{
			ID: "p1", UserID: "uid_ada", AppName: `Say "hi"`, LLMName: "Claude",
			ChatThreadTitle: "Greeting, v2", ChatThreadURL: "https://chat.example/1",
			LastChatDate: "2024-03-09", Notes: "line one\nline two", LastUpdatedAt: 1710000000000,
		},
		{
			ID: "p2", UserID: "uid_ada", AppName: "Budget Bot", LLMName: "ChatGPT",
			ChatThreadTitle: "budget", ChatThreadURL: "https://chat.example/2",
			LastChatDate: "2024-02-01", GitHubRef: "https://github.com/ada/budget", LastUpdatedAt: 1700000000000,
		},
	}
	l := loadedList(t, newMemStore(projects...))
	l.SetFilter("no match")

	data, err := l.ExportCSV()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "export", data)
}

func TestExportEmpty(t *testing.T) {
	l := loadedList(t, newMemStore())

	_, err := l.ExportCSV()
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = l.WriteExport(t.TempDir(), time.Now())
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestWriteExport(t *testing.T) {
	l := loadedList(t, newMemStore(sampleProjects()...))
	dir := t.TempDir()
	now := time.Date(2024, time.March, 9, 22, 0, 0, 0, time.Local)

	path, err := l.WriteExport(dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vibe-tracker-export-2024-03-09.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, EncodeCSV(l.Projects()), data)
}

func TestDeleteRequiresUser(t *testing.T) {
	l := New(newMemStore(sampleProjects()...))
	err := l.Delete(context.Background(), "p1")
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
}
