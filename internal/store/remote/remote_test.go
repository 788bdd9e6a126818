package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/client"
	"github.com/existflow/vibetrack/internal/model"
	"github.com/existflow/vibetrack/internal/store"
)

var _ store.Store = (*Store)(nil)
var _ store.Notifier = (*Store)(nil)

// fakeServer is a minimal in-memory vibetrack-server for one user
type fakeServer struct {
	mu       sync.Mutex
	projects map[string]model.Project
	revision int64
	next     int64
	down     bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{projects: map[string]model.Project{}}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/projects/revision":
		json.NewEncoder(w).Encode(client.RevisionResponse{Revision: f.revision})
	case path == "/projects" && r.Method == http.MethodGet:
		out := client.ProjectsResponse{}
		for _, p := range f.projects {
			out.Projects = append(out.Projects, p)
		}
		json.NewEncoder(w).Encode(out)
	case path == "/projects" && r.Method == http.MethodPost:
		var fields model.Fields
		json.NewDecoder(r.Body).Decode(&fields)
		f.next++
		f.revision++
		p := model.NewProject("p"+strconv.FormatInt(f.next, 10), "uid_a", fields, f.next)
		f.projects[p.ID] = p
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	case strings.HasPrefix(path, "/projects/"):
		id := strings.TrimPrefix(path, "/projects/")
		p, ok := f.projects[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"project not found"}`))
			return
		}
		f.revision++
		if r.Method == http.MethodDelete {
			delete(f.projects, id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		var patch model.Patch
		json.NewDecoder(r.Body).Decode(&patch)
		patch.Apply(&p)
		f.next++
		p.LastUpdatedAt = f.next
		f.projects[id] = p
		json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T, fake *fakeServer) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s := New(client.New(srv.URL, func() string { return "tok" }), 20*time.Millisecond)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRemoteCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeServer())

	first, err := s.Create(ctx, "uid_a", model.Fields{AppName: "first", LLMName: "Claude"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "uid_a", model.Fields{AppName: "second", LLMName: "Claude"})
	require.NoError(t, err)

	list, err := s.ListByOwner(ctx, "uid_a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].AppName)

	notes := "done"
	updated, err := s.Update(ctx, first.ID, model.Patch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Notes)

	list, err = s.ListByOwner(ctx, "uid_a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID)

	require.NoError(t, s.Delete(ctx, first.ID))
	assert.ErrorIs(t, s.Delete(ctx, first.ID), model.ErrNotFound)
}

func TestRemoteKeepsEveryField(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeServer())

	want := model.Fields{
		AppName:            "Recipe box",
		LLMName:            "ChatGPT",
		ChatThreadTitle:    "Recipe app",
		ChatThreadURL:      "https://chatgpt.com/c/1",
		LastChatDate:       "2024-03-10",
		AppURL:             "https://recipes.example.com",
		VSCodeURL:          "vscode://file/home/ada/recipes",
		GitHubRef:          "https://github.com/ada/recipes",
		FirebaseRulesURL:   "https://console.firebase.google.com/project/recipes/rules",
		LastSolvedProblem:  "Fixed image upload",
		NextProblemToSolve: "Add sharing",
		Notes:              "Uses Firestore",
	}
	created, err := s.Create(ctx, "uid_a", want)
	require.NoError(t, err)
	assert.Equal(t, want, created.Fields())

	list, err := s.ListByOwner(ctx, "uid_a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, want, list[0].Fields())

	want.Notes = "Moved to Claude"
	want.VSCodeURL = "vscode://file/home/ada/book"
	updated, err := s.Update(ctx, created.ID, want.Patch())
	require.NoError(t, err)
	assert.Equal(t, want, updated.Fields())
}

func TestRemoteUnavailable(t *testing.T) {
	fake := newFakeServer()
	fake.down = true
	s := newTestStore(t, fake)

	_, err := s.ListByOwner(context.Background(), "uid_a")
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestRemoteNotifiesOnRevisionChange(t *testing.T) {
	ctx := context.Background()
	fake := newFakeServer()
	s := newTestStore(t, fake)

	changed := make(chan struct{}, 1)
	s.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	s.Start(ctx)

	fake.mu.Lock()
	fake.revision = 7
	fake.mu.Unlock()

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("subscriber was not notified")
	}
}
