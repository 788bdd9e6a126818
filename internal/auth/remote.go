package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/existflow/vibetrack/internal/client"
	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
)

// IDTokenSource obtains a Google ID token for federated sign-in. An empty
// token means the user backed out.
type IDTokenSource func(ctx context.Context) (string, error)

// StaticToken returns a source that always yields token
func StaticToken(token string) IDTokenSource {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

// CommandToken returns a source that runs command through the shell and
// uses its trimmed stdout as the token.
func CommandToken(command string) IDTokenSource {
	return func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, "sh", "-c", command).Output()
		if err != nil {
			return "", fmt.Errorf("id token command: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}

// Remote signs in against vibetrack-server
type Remote struct {
	state  *sessionState
	client *client.Client
	tokens IDTokenSource
}

// NewRemote restores any existing session for serverURL from file. tokens
// may be nil when no federated sign-in is configured.
func NewRemote(serverURL string, file *SessionFile, pollInterval time.Duration, tokens IDTokenSource) *Remote {
	r := &Remote{
		state:  newSessionState(strings.TrimRight(serverURL, "/"), file, pollInterval),
		tokens: tokens,
	}
	r.client = client.New(serverURL, r.Token)
	return r
}

// Token returns the bearer token of the current session
func (r *Remote) Token() string { return r.state.token() }

// Client returns an API client that authenticates as the current session
func (r *Remote) Client() *client.Client { return r.client }

// Start watches for sign-in/out by other vibe processes
func (r *Remote) Start(ctx context.Context) { r.state.start(ctx) }

// Close stops watching the session file
func (r *Remote) Close() error {
	r.state.stop()
	return nil
}

// CurrentUser implements Provider
func (r *Remote) CurrentUser() (model.User, bool) { return r.state.user() }

// OnChange implements Provider
func (r *Remote) OnChange(fn func(*model.User)) func() { return r.state.onChange(fn) }

// SignInWithPassword implements Provider
func (r *Remote) SignInWithPassword(ctx context.Context, email, password string) (model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return model.User{}, model.NewAuthError(model.AuthInvalidCredentials, errors.New("email and password are required"))
	}
	resp, err := r.client.Login(ctx, strings.TrimSpace(email), password)
	return r.finish(resp, err)
}

// RegisterWithPassword implements Provider
func (r *Remote) RegisterWithPassword(ctx context.Context, email, password string) (model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return model.User{}, model.NewAuthError(model.AuthInvalidCredentials, errors.New("email and password are required"))
	}
	resp, err := r.client.Register(ctx, strings.TrimSpace(email), password)
	return r.finish(resp, err)
}

// SignInWithFederatedProvider implements Provider
func (r *Remote) SignInWithFederatedProvider(ctx context.Context) (model.User, error) {
	if r.tokens == nil {
		return model.User{}, model.NewAuthError(model.AuthPopupBlocked, errors.New("no id token source configured"))
	}

	idToken, err := r.tokens(ctx)
	if err != nil {
		return model.User{}, model.NewAuthError(model.AuthCancelled, err)
	}
	if idToken == "" {
		return model.User{}, model.NewAuthError(model.AuthCancelled, nil)
	}

	resp, err := r.client.Federated(ctx, idToken)
	return r.finish(resp, err)
}

// SignOut implements Provider. The local session is always cleared; a
// server that cannot be reached only leaves its session to expire.
func (r *Remote) SignOut(ctx context.Context) error {
	if r.Token() != "" {
		if err := r.client.Logout(ctx); err != nil {
			r.state.log.Warn("server logout failed", logger.Err(err))
		}
	}
	return r.state.set(nil)
}

func (r *Remote) finish(resp client.AuthResponse, err error) (model.User, error) {
	if err != nil {
		return model.User{}, classify(err)
	}
	if err := r.state.set(&Session{User: resp.User, Token: resp.Token}); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// classify maps client failures onto auth error kinds
func classify(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusNotImplemented:
			return model.NewAuthError(model.AuthPopupBlocked, err)
		case statusErr.Code == http.StatusTooManyRequests, statusErr.Code >= 500:
			return model.NewAuthError(model.AuthNetwork, err)
		default:
			return model.NewAuthError(model.AuthInvalidCredentials, err)
		}
	}
	return model.NewAuthError(model.AuthNetwork, err)
}

// ServerReason returns a sentence for sign-in failures the server explains
// itself, such as a taken email, a short password or rate limiting. It
// returns "" for everything else.
func ServerReason(err error) string {
	var statusErr *client.StatusError
	if !errors.As(err, &statusErr) {
		return ""
	}
	switch statusErr.Code {
	case http.StatusTooManyRequests:
		return "Too many sign-in attempts. Wait a minute and try again."
	case http.StatusBadRequest, http.StatusConflict:
		msg := strings.TrimSpace(statusErr.Message)
		if msg == "" {
			return ""
		}
		return strings.ToUpper(msg[:1]) + strings.TrimSuffix(msg[1:], ".") + "."
	}
	return ""
}
