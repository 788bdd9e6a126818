package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/config"
	"github.com/existflow/vibetrack/internal/editor"
	"github.com/existflow/vibetrack/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(dir, "projects.db")
	cfg.SessionPath = filepath.Join(dir, "session.json")
	cfg.ExportDir = filepath.Join(dir, "exports")
	cfg.PollInterval = 20 * time.Millisecond
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "cloud"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend must be")
}

func TestApp_LocalFlow(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	a.Now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local) }

	_, err = a.RequireUser()
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, a.Load(ctx), model.ErrUnauthenticated)

	_, err = a.Auth.SignInWithPassword(ctx, "ada@example.com", "")
	require.NoError(t, err)
	require.NoError(t, a.Load(ctx))
	assert.Empty(t, a.Projects.Projects())

	_, err = a.Export()
	assert.Error(t, err)

	u, err := a.RequireUser()
	require.NoError(t, err)

	ed := a.NewEditor(nil)
	assert.Equal(t, "2024-03-10", ed.Get(editor.LastChatDate))
	require.NoError(t, ed.Set(editor.AppName, "Alpha"))
	require.NoError(t, ed.Set(editor.ChatThreadTitle, "Build it"))
	require.NoError(t, ed.Set(editor.ChatThreadURL, "https://claude.ai/chat/1"))
	_, err = ed.Submit(ctx, &u)
	require.NoError(t, err)

	projects := a.Projects.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "Alpha", projects[0].AppName)
	assert.Equal(t, cfg.Platforms[0], projects[0].LLMName)

	path, err := a.Export()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ExportDir, "vibe-tracker-export-2024-03-10.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Alpha"`)
}
