package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/existflow/vibetrack/internal/model"
)

// GoogleUser is the principal issued by the local provider's federated sign-in
var GoogleUser = model.User{
	UID:         "uid_google_user",
	Email:       "google.user@example.com",
	DisplayName: "Google User",
}

// Local is the offline identity provider. It accepts any password and
// derives a stable uid from the email.
type Local struct {
	state *sessionState
}

// NewLocal restores any existing local session from file
func NewLocal(file *SessionFile, pollInterval time.Duration) *Local {
	return &Local{state: newSessionState("local", file, pollInterval)}
}

// Start watches for sign-in/out by other vibe processes
func (l *Local) Start(ctx context.Context) { l.state.start(ctx) }

// Close stops watching the session file
func (l *Local) Close() error {
	l.state.stop()
	return nil
}

// CurrentUser implements Provider
func (l *Local) CurrentUser() (model.User, bool) { return l.state.user() }

// OnChange implements Provider
func (l *Local) OnChange(fn func(*model.User)) func() { return l.state.onChange(fn) }

// SignInWithPassword implements Provider
func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, model.NewAuthError(model.AuthInvalidCredentials, errors.New("email is required"))
	}

	u := model.User{
		UID:         "uid_" + email,
		Email:       email,
		DisplayName: model.EmailLocalPart(email),
	}
	if err := l.state.set(&Session{User: u}); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// RegisterWithPassword implements Provider; it behaves like sign-in
func (l *Local) RegisterWithPassword(ctx context.Context, email, password string) (model.User, error) {
	return l.SignInWithPassword(ctx, email, password)
}

// SignInWithFederatedProvider implements Provider
func (l *Local) SignInWithFederatedProvider(ctx context.Context) (model.User, error) {
	if err := l.state.set(&Session{User: GoogleUser}); err != nil {
		return model.User{}, err
	}
	return GoogleUser, nil
}

// SignOut implements Provider
func (l *Local) SignOut(ctx context.Context) error {
	return l.state.set(nil)
}
