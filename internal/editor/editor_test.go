package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/model"
)

type recordingStore struct {
	created []model.Fields
	updated map[string]model.Patch
	err     error
}

func (s *recordingStore) ListByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	return nil, nil
}

func (s *recordingStore) Create(ctx context.Context, userID string, f model.Fields) (model.Project, error) {
	if s.err != nil {
		return model.Project{}, s.err
	}
	s.created = append(s.created, f)
	return model.NewProject("new-id", userID, f, 1), nil
}

func (s *recordingStore) Update(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	if s.err != nil {
		return model.Project{}, s.err
	}
	if s.updated == nil {
		s.updated = map[string]model.Patch{}
	}
	s.updated[id] = patch
	p := model.Project{ID: id}
	patch.Apply(&p)
	return p, nil
}

func (s *recordingStore) Delete(ctx context.Context, id string) error { return nil }

var (
	ada       = &model.User{UID: "uid_ada"}
	lateNight = time.Date(2024, time.March, 9, 23, 45, 0, 0, time.FixedZone("PST", -8*60*60))
)

func options(s *recordingStore) Options {
	return Options{
		Store:     s,
		Platforms: []string{"Claude", "ChatGPT", "Gemini"},
		Now:       func() time.Time { return lateNight },
	}
}

func fillRequired(t *testing.T, e *Editor) {
	t.Helper()
	require.NoError(t, e.Set(AppName, "Recipe Box"))
	require.NoError(t, e.Set(ChatThreadTitle, "recipes"))
	require.NoError(t, e.Set(ChatThreadURL, "https://chat.example/1"))
}

func TestNewDraftDefaults(t *testing.T) {
	e := Open(nil, options(&recordingStore{}))

	assert.True(t, e.IsNew())
	assert.Equal(t, "Claude", e.Draft().LLMName)
	assert.Equal(t, "2024-03-09", e.Draft().LastChatDate, "today is the viewer's calendar day, not UTC")
	assert.Empty(t, e.Draft().AppName)
}

func TestOpenExistingNormalizesDate(t *testing.T) {
	p := &model.Project{ID: "p1", AppName: "A", LastChatDate: "2024-1-5"}
	e := Open(p, options(&recordingStore{}))
	assert.Equal(t, "2024-01-05", e.Draft().LastChatDate)

	p.LastChatDate = "garbage"
	e = Open(p, options(&recordingStore{}))
	assert.Equal(t, "2024-03-09", e.Draft().LastChatDate)
}

func TestValidateNamesMissingField(t *testing.T) {
	e := Open(nil, options(&recordingStore{}))

	err := e.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalid)

	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "appName", vErr.Field)

	fillRequired(t, e)
	require.NoError(t, e.Validate())

	require.NoError(t, e.Set(LastChatDate, "2024-02-30"))
	require.ErrorAs(t, e.Validate(), &vErr)
	assert.Equal(t, "lastChatDate", vErr.Field)
}

func TestSubmitWithoutUser(t *testing.T) {
	s := &recordingStore{}
	e := Open(nil, options(s))
	fillRequired(t, e)

	_, err := e.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, e.Err(), model.ErrUnauthenticated)
	assert.True(t, e.IsOpen())
	assert.Equal(t, "Recipe Box", e.Draft().AppName)
	assert.Empty(t, s.created)
}

func TestSubmitCreatesThenRefreshesThenCloses(t *testing.T) {
	s := &recordingStore{}
	opts := options(s)
	var refreshed []string
	opts.OnSaved = func(ctx context.Context, p model.Project) { refreshed = append(refreshed, p.ID) }

	e := Open(nil, opts)
	fillRequired(t, e)
	require.NoError(t, e.Set(LastChatDate, "2024-3-1"))

	p, err := e.Submit(context.Background(), ada)
	require.NoError(t, err)
	assert.Equal(t, "uid_ada", p.UserID)
	require.Len(t, s.created, 1)
	assert.Equal(t, "2024-03-01", s.created[0].LastChatDate)
	assert.Equal(t, []string{"new-id"}, refreshed)
	assert.False(t, e.IsOpen())
	assert.NoError(t, e.Err())
}

func TestSubmitUpdateSendsFullDraft(t *testing.T) {
	s := &recordingStore{}
	existing := &model.Project{
		ID: "p1", UserID: "uid_ada", AppName: "Old", LLMName: "Gemini",
		ChatThreadTitle: "t", ChatThreadURL: "u", LastChatDate: "2024-01-01", Notes: "keep",
	}
	e := Open(existing, options(s))
	require.NoError(t, e.Set(AppName, "New"))

	_, err := e.Submit(context.Background(), ada)
	require.NoError(t, err)

	patch := s.updated["p1"]
	require.NotNil(t, patch.AppName)
	assert.Equal(t, "New", *patch.AppName)
	require.NotNil(t, patch.Notes)
	assert.Equal(t, "keep", *patch.Notes)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	s := &recordingStore{err: model.ErrUnavailable}
	e := Open(nil, options(s))
	fillRequired(t, e)

	_, err := e.Submit(context.Background(), ada)
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.True(t, e.IsOpen())
	assert.Equal(t, "Recipe Box", e.Draft().AppName)

	s.err = nil
	_, err = e.Submit(context.Background(), ada)
	require.NoError(t, err)
	assert.NoError(t, e.Err())
}

func TestCyclePlatform(t *testing.T) {
	e := Open(nil, options(&recordingStore{}))

	e.CyclePlatform(1)
	assert.Equal(t, "ChatGPT", e.Draft().LLMName)
	e.CyclePlatform(-2)
	assert.Equal(t, "Gemini", e.Draft().LLMName)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("githubRef")
	require.NoError(t, err)
	assert.Equal(t, GitHubRef, f)

	_, err = ParseField("color")
	assert.ErrorIs(t, err, model.ErrInvalid)
}
