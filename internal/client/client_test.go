package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/model"
)

func TestListProjectsSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ProjectsResponse{Projects: []model.Project{{ID: "p1", AppName: "A"}}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", func() string { return "tok" })
	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "A", projects[0].AppName)
}

func TestStatusErrorsMapToSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, model.ErrUnauthenticated},
		{http.StatusNotFound, model.ErrNotFound},
		{http.StatusBadRequest, model.ErrInvalid},
		{http.StatusServiceUnavailable, model.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			err := New(srv.URL, nil).DeleteProject(context.Background(), "p1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, "nope", statusErr.Message)
		})
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Revision(context.Background())
	assert.ErrorIs(t, err, model.ErrUnavailable)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestUpdateProjectSendsOnlyPatchedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/projects/p1", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"notes": "hi"}, body)

		json.NewEncoder(w).Encode(model.Project{ID: "p1", Notes: "hi"})
	}))
	defer srv.Close()

	notes := "hi"
	p, err := New(srv.URL, nil).UpdateProject(context.Background(), "p1", model.Patch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Notes)
}
