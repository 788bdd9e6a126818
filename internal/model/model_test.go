package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", "2024-03-09", "2024-03-09", false},
		{"unpadded", "2024-3-9", "2024-03-09", false},
		{"leap day", "2024-02-29", "2024-02-29", false},
		{"not a leap year", "2023-02-29", "", true},
		{"month out of range", "2024-13-01", "", true},
		{"day zero", "2024-01-00", "", true},
		{"garbage", "yesterday", "", true},
		{"timestamp", "2024-03-09T10:00:00Z", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseChatDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestTodayUsesLocalCalendarDay(t *testing.T) {
	// 23:30 on Jan 1 in UTC-5 is already Jan 2 in UTC.
	zone := time.FixedZone("EST", -5*60*60)
	now := time.Date(2024, time.January, 1, 23, 30, 0, 0, zone)

	assert.Equal(t, "2024-01-01", Today(now).String())
}

func TestNormalizeChatDate(t *testing.T) {
	now := time.Date(2024, time.June, 15, 8, 0, 0, 0, time.Local)

	assert.Equal(t, "2024-05-01", NormalizeChatDate("2024-5-1", now))
	assert.Equal(t, "2024-06-15", NormalizeChatDate("not a date", now))
}

func TestPatchApply(t *testing.T) {
	p := Project{ID: "p1", UserID: "u1", AppName: "Old", Notes: "keep"}
	name := "New"

	Patch{AppName: &name}.Apply(&p)

	assert.Equal(t, "New", p.AppName)
	assert.Equal(t, "keep", p.Notes)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "u1", p.UserID)
}

func TestFieldsPatchSetsEverything(t *testing.T) {
	f := Fields{AppName: "A", LLMName: "Claude", Notes: ""}
	p := Project{AppName: "x", LLMName: "y", Notes: "z"}

	f.Patch().Apply(&p)

	assert.Equal(t, f, p.Fields())
	assert.False(t, f.Patch().IsEmpty())
	assert.True(t, Patch{}.IsEmpty())
}

func TestProjectMatches(t *testing.T) {
	p := Project{AppName: "Recipe Box", LLMName: "Claude"}

	assert.True(t, p.Matches(""))
	assert.True(t, p.Matches("recipe"))
	assert.True(t, p.Matches("CLAU"))
	assert.False(t, p.Matches("gemini"))
}

func TestValuesFollowExportColumns(t *testing.T) {
	p := Project{ID: "p1", Notes: "n", LastUpdatedAt: 42}
	values := p.Values()

	require.Len(t, values, len(ExportColumns))
	assert.Equal(t, "p1", values[0])
	assert.Equal(t, "n", values[13])
	assert.Equal(t, "42", values[14])
}

func TestQuickResumeLinks(t *testing.T) {
	p := Project{ChatThreadURL: "https://chat.example/1", GitHubRef: "owner/repo"}
	assert.Equal(t, []string{"https://chat.example/1"}, p.QuickResumeLinks())

	p.GitHubRef = "https://github.com/owner/repo"
	assert.Equal(t, []string{"https://chat.example/1", "https://github.com/owner/repo"}, p.QuickResumeLinks())
}

func TestAuthErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("sign in: %w", NewAuthError(AuthNetwork, errors.New("dial tcp")))

	assert.True(t, errors.Is(err, &AuthError{Kind: AuthNetwork}))
	assert.False(t, errors.Is(err, &AuthError{Kind: AuthCancelled}))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, AuthNetwork, authErr.Kind)
}

func TestValidationErrorWrapsInvalid(t *testing.T) {
	err := &ValidationError{Field: "appName"}

	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "appName is required", err.Error())
}

func TestUserLabel(t *testing.T) {
	assert.Equal(t, "Ada", User{UID: "u", Email: "ada@example.com", DisplayName: "Ada"}.Label())
	assert.Equal(t, "ada@example.com", User{UID: "u", Email: "ada@example.com"}.Label())
	assert.Equal(t, "u", User{UID: "u"}.Label())
	assert.Equal(t, "ada", EmailLocalPart("ada@example.com"))
}
