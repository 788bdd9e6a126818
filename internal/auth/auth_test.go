package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/vibetrack/internal/client"
	"github.com/existflow/vibetrack/internal/model"
)

var _ Provider = (*Local)(nil)
var _ Provider = (*Remote)(nil)

func sessionPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "session.json")
}

func TestLocalSignInDerivesPrincipal(t *testing.T) {
	l := NewLocal(NewSessionFile(sessionPath(t)), time.Hour)

	u, err := l.SignInWithPassword(context.Background(), "ada@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, model.User{UID: "uid_ada@example.com", Email: "ada@example.com", DisplayName: "ada"}, u)

	cur, ok := l.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, u, cur)
}

func TestLocalEmptyEmailIsInvalidCredentials(t *testing.T) {
	l := NewLocal(NewSessionFile(sessionPath(t)), time.Hour)

	_, err := l.SignInWithPassword(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthInvalidCredentials})

	_, ok := l.CurrentUser()
	assert.False(t, ok)
}

func TestLocalFederatedSignIn(t *testing.T) {
	l := NewLocal(NewSessionFile(sessionPath(t)), time.Hour)

	u, err := l.SignInWithFederatedProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GoogleUser, u)
}

func TestSessionIsRestoredAndFilePermissions(t *testing.T) {
	path := sessionPath(t)
	first := NewLocal(NewSessionFile(path), time.Hour)
	_, err := first.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second := NewLocal(NewSessionFile(path), time.Hour)
	u, ok := second.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "uid_ada@example.com", u.UID)

	remote := NewRemote("http://localhost:1", NewSessionFile(path), time.Hour, nil)
	_, ok = remote.CurrentUser()
	assert.False(t, ok, "a local session does not sign in the remote backend")
}

func TestOnChangeFiresImmediatelyAndOnSignOut(t *testing.T) {
	l := NewLocal(NewSessionFile(sessionPath(t)), time.Hour)
	ctx := context.Background()

	var seen []*model.User
	unsubscribe := l.OnChange(func(u *model.User) { seen = append(seen, u) })
	defer unsubscribe()

	_, err := l.SignInWithPassword(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = l.SignInWithPassword(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, l.SignOut(ctx))

	require.Len(t, seen, 3)
	assert.Nil(t, seen[0])
	assert.Equal(t, "uid_ada@example.com", seen[1].UID)
	assert.Nil(t, seen[2])
}

func TestOtherProcessSignOutIsObserved(t *testing.T) {
	path := sessionPath(t)
	ctx := context.Background()

	watcher := NewLocal(NewSessionFile(path), 20*time.Millisecond)
	other := NewLocal(NewSessionFile(path), time.Hour)

	_, err := other.SignInWithPassword(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	changes := make(chan *model.User, 4)
	watcher.OnChange(func(u *model.User) { changes <- u })
	watcher.Start(ctx)
	defer watcher.Close()

	// the initial callback reports the state at subscription time
	assert.Nil(t, <-changes)

	select {
	case u := <-changes:
		require.NotNil(t, u)
		assert.Equal(t, "uid_ada@example.com", u.UID)
	case <-time.After(3 * time.Second):
		t.Fatal("sign-in by another process was not observed")
	}

	require.NoError(t, other.SignOut(ctx))
	select {
	case u := <-changes:
		assert.Nil(t, u)
	case <-time.After(3 * time.Second):
		t.Fatal("sign-out by another process was not observed")
	}
}

func authServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"rejected"}`))
			return
		}
		switch r.URL.Path {
		case "/api/v1/login", "/api/v1/register", "/api/v1/federated":
			json.NewEncoder(w).Encode(client.AuthResponse{
				Token: "tok",
				User:  model.User{UID: "u-1", Email: "ada@example.com"},
			})
		case "/api/v1/logout":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteSignInStoresToken(t *testing.T) {
	srv := authServer(t, http.StatusOK)
	r := NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, nil)

	u, err := r.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.UID)
	assert.Equal(t, "tok", r.Token())

	require.NoError(t, r.SignOut(context.Background()))
	assert.Empty(t, r.Token())
}

func TestRemoteErrorKinds(t *testing.T) {
	ctx := context.Background()

	rejected := authServer(t, http.StatusUnauthorized)
	r := NewRemote(rejected.URL, NewSessionFile(sessionPath(t)), time.Hour, nil)
	_, err := r.SignInWithPassword(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthInvalidCredentials})

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	r = NewRemote(url, NewSessionFile(sessionPath(t)), time.Hour, nil)
	_, err = r.RegisterWithPassword(ctx, "ada@example.com", "pw")
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthNetwork})
}

func TestRemoteServerReasons(t *testing.T) {
	ctx := context.Background()
	respond := func(status int, body string) *Remote {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, nil)
	}

	_, err := respond(http.StatusTooManyRequests, `{"message":"rate limit exceeded"}`).
		SignInWithPassword(ctx, "ada@example.com", "pw")
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthNetwork})
	assert.Equal(t, "Too many sign-in attempts. Wait a minute and try again.", ServerReason(err))

	_, err = respond(http.StatusConflict, `{"error":"email already registered"}`).
		RegisterWithPassword(ctx, "ada@example.com", "secret")
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthInvalidCredentials})
	assert.Equal(t, "Email already registered.", ServerReason(err))

	_, err = respond(http.StatusBadRequest, `{"error":"password must be at least 6 characters"}`).
		RegisterWithPassword(ctx, "ada@example.com", "pw")
	assert.Equal(t, "Password must be at least 6 characters.", ServerReason(err))

	_, err = respond(http.StatusUnauthorized, `{"error":"invalid credentials"}`).
		SignInWithPassword(ctx, "ada@example.com", "wrong")
	assert.Empty(t, ServerReason(err))
}

func TestRemoteFederated(t *testing.T) {
	ctx := context.Background()
	srv := authServer(t, http.StatusOK)

	r := NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, nil)
	_, err := r.SignInWithFederatedProvider(ctx)
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthPopupBlocked})

	r = NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, StaticToken(""))
	_, err = r.SignInWithFederatedProvider(ctx)
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthCancelled})

	r = NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, func(ctx context.Context) (string, error) {
		return "", errors.New("closed the browser")
	})
	_, err = r.SignInWithFederatedProvider(ctx)
	assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthCancelled})

	r = NewRemote(srv.URL, NewSessionFile(sessionPath(t)), time.Hour, StaticToken("google-id-token"))
	u, err := r.SignInWithFederatedProvider(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.UID)
}
