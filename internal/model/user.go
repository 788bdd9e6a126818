package model

import (
	"strings"
	"time"
)

// User is the signed-in principal as issued by the identity provider
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Label returns the best human-readable name for the user
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.UID
}

// EmailLocalPart returns the part of an email address before the @
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// Account is a password or federated identity held by the server
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	FederatedUID string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// User returns the principal for the account
func (a Account) User() User {
	return User{UID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// Session represents an active login session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
