package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
)

const minPasswordLength = 6

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedRequest struct {
	IDToken string `json:"id_token"`
}

type authResponse struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	User      model.User `json:"user"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and password required"})
	}
	if len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 6 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	account, err := s.repo.CreateAccount(c.Request().Context(), email, model.EmailLocalPart(email), string(hash))
	if errors.Is(err, ErrEmailTaken) {
		s.metrics.signIns.WithLabelValues("register", "conflict").Inc()
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
	}
	if err != nil {
		logger.Error("create account failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("user registered", logger.F("user_id", account.ID))
	s.metrics.signIns.WithLabelValues("register", "ok").Inc()
	return s.issueSession(c, account)
}

// handleLogin handles user login
func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	account, err := s.repo.GetAccountByEmail(c.Request().Context(), email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error("account lookup failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if err != nil || account.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		s.metrics.signIns.WithLabelValues("password", "rejected").Inc()
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	logger.Info("user logged in", logger.F("user_id", account.ID))
	s.metrics.signIns.WithLabelValues("password", "ok").Inc()
	return s.issueSession(c, account)
}

// handleFederated exchanges a verified Google ID token for a session
func (s *Server) handleFederated(c echo.Context) error {
	if s.verifier == nil {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "federated sign-in is not configured"})
	}

	var req federatedRequest
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id_token required"})
	}

	ctx := c.Request().Context()
	identity, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		s.metrics.signIns.WithLabelValues("federated", "rejected").Inc()
		logger.Warn("id token rejected", logger.Err(err))
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid id token"})
	}
	if identity.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id token has no email"})
	}
	if !identity.EmailVerified {
		s.metrics.signIns.WithLabelValues("federated", "rejected").Inc()
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "email not verified"})
	}

	name := identity.DisplayName
	if name == "" {
		name = model.EmailLocalPart(identity.Email)
	}
	account, err := s.repo.FederatedAccount(ctx, identity.UID, strings.ToLower(identity.Email), name)
	if errors.Is(err, ErrAccountExists) {
		s.metrics.signIns.WithLabelValues("federated", "conflict").Inc()
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered with another sign-in method"})
	}
	if err != nil {
		logger.Error("federated account failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("user signed in with google", logger.F("user_id", account.ID))
	s.metrics.signIns.WithLabelValues("federated", "ok").Inc()
	return s.issueSession(c, account)
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	account, err := s.repo.GetAccount(c.Request().Context(), userID(c))
	if errors.Is(err, model.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	if err != nil {
		logger.Error("account lookup failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, account.User())
}

// handleLogout deletes the current session
func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get(ctxToken).(string)
	if err := s.repo.DeleteSession(c.Request().Context(), token); err != nil {
		logger.Error("delete session failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) issueSession(c echo.Context, account model.Account) error {
	token, expiresAt, err := s.createSession(c, account.ID)
	if err != nil {
		logger.Error("create session failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      account.User(),
	})
}

// createSession creates a new session for a user
func (s *Server) createSession(c echo.Context, userID string) (string, time.Time, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(tokenBytes)

	expiresAt := s.now().Add(s.cfg.SessionTTL)
	if err := s.repo.CreateSession(c.Request().Context(), userID, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
