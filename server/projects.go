package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/vibetrack/internal/logger"
	"github.com/existflow/vibetrack/internal/model"
)

type projectsResponse struct {
	Projects []model.Project `json:"projects"`
}

type revisionResponse struct {
	Revision int64 `json:"revision"`
}

// handleListProjects returns the caller's projects, newest first
func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.repo.ListProjects(c.Request().Context(), userID(c))
	if err != nil {
		logger.Error("list projects failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, projectsResponse{Projects: projects})
}

// handleCreateProject stores a new project for the caller
func (s *Server) handleCreateProject(c echo.Context) error {
	var f model.Fields
	if err := c.Bind(&f); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := validateFields(&f); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	uid := userID(c)
	p, err := s.repo.CreateProject(ctx, uid, f, s.now().UnixMilli())
	if err != nil {
		logger.Error("create project failed", logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.changed(c, uid, "create", p.ID)
	return c.JSON(http.StatusCreated, p)
}

// handleUpdateProject merges a partial update into one of the caller's projects
func (s *Server) handleUpdateProject(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
	}

	var patch model.Patch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := validatePatch(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	uid := userID(c)
	p, err := s.repo.UpdateProject(ctx, uid, id, patch, s.now().UnixMilli())
	if errors.Is(err, model.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
	}
	if err != nil {
		logger.Error("update project failed", logger.Err(err), logger.F("id", id))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.changed(c, uid, "update", id)
	return c.JSON(http.StatusOK, p)
}

// handleDeleteProject removes one of the caller's projects
func (s *Server) handleDeleteProject(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
	}

	uid := userID(c)
	err := s.repo.DeleteProject(c.Request().Context(), uid, id)
	if errors.Is(err, model.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
	}
	if err != nil {
		logger.Error("delete project failed", logger.Err(err), logger.F("id", id))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	s.changed(c, uid, "delete", id)
	return c.NoContent(http.StatusNoContent)
}

// handleRevision returns the caller's change counter
func (s *Server) handleRevision(c echo.Context) error {
	rev, err := s.feed.Revision(c.Request().Context(), userID(c))
	if err != nil {
		logger.Error("read revision failed", logger.Err(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "revision feed unavailable"})
	}
	return c.JSON(http.StatusOK, revisionResponse{Revision: rev})
}

// changed records a successful mutation. A feed failure only delays
// other clients until their next successful poll.
func (s *Server) changed(c echo.Context, uid, op, id string) {
	s.metrics.projectMutations.WithLabelValues(op).Inc()
	if _, err := s.feed.Bump(c.Request().Context(), uid); err != nil {
		logger.Warn("revision bump failed", logger.Err(err), logger.F("user_id", uid))
	}
	logger.Info("project "+op+"d", logger.F("id", id), logger.F("user_id", uid))
}

var requiredFields = []struct {
	name  string
	label string
	get   func(model.Fields) string
	patch func(model.Patch) *string
}{
	{"appName", "App name", func(f model.Fields) string { return f.AppName }, func(p model.Patch) *string { return p.AppName }},
	{"llmName", "LLM platform", func(f model.Fields) string { return f.LLMName }, func(p model.Patch) *string { return p.LLMName }},
	{"chatThreadTitle", "Chat thread title", func(f model.Fields) string { return f.ChatThreadTitle }, func(p model.Patch) *string { return p.ChatThreadTitle }},
	{"chatThreadUrl", "Chat thread URL", func(f model.Fields) string { return f.ChatThreadURL }, func(p model.Patch) *string { return p.ChatThreadURL }},
}

// validateFields checks required fields and rewrites the chat date to
// its zero-padded form
func validateFields(f *model.Fields) error {
	for _, r := range requiredFields {
		if strings.TrimSpace(r.get(*f)) == "" {
			return &model.ValidationError{Field: r.name, Message: r.label + " is required"}
		}
	}
	d, err := canonicalDate(f.LastChatDate)
	if err != nil {
		return err
	}
	f.LastChatDate = d
	return nil
}

func validatePatch(p *model.Patch) error {
	for _, r := range requiredFields {
		if v := r.patch(*p); v != nil && strings.TrimSpace(*v) == "" {
			return &model.ValidationError{Field: r.name, Message: r.label + " is required"}
		}
	}
	if p.LastChatDate == nil {
		return nil
	}
	d, err := canonicalDate(*p.LastChatDate)
	if err != nil {
		return err
	}
	p.LastChatDate = &d
	return nil
}

func canonicalDate(s string) (string, error) {
	d, err := model.ParseChatDate(s)
	if err != nil {
		return "", &model.ValidationError{Field: "lastChatDate", Message: "lastChatDate must be YYYY-MM-DD"}
	}
	return d.String(), nil
}
