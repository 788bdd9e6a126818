package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/existflow/vibetrack/internal/model"
)

// Credentials is the body of register and login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FederatedRequest exchanges a Google ID token for a session
type FederatedRequest struct {
	IDToken string `json:"id_token"`
}

// AuthResponse is returned by every sign-in endpoint
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ProjectsResponse is the body of GET /projects
type ProjectsResponse struct {
	Projects []model.Project `json:"projects"`
}

// RevisionResponse is the body of GET /projects/revision
type RevisionResponse struct {
	Revision int64 `json:"revision"`
}

// Register creates a password account and signs in
func (c *Client) Register(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/register", Credentials{Email: email, Password: password}, &out)
	return out, err
}

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/login", Credentials{Email: email, Password: password}, &out)
	return out, err
}

// Federated signs in with a Google ID token
func (c *Client) Federated(ctx context.Context, idToken string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/federated", FederatedRequest{IDToken: idToken}, &out)
	return out, err
}

// Logout ends the current session on the server
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// Me returns the session's user
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "/me", nil, &out)
	return out, err
}

// ListProjects returns the signed-in user's projects
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out ProjectsResponse
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	if out.Projects == nil {
		out.Projects = []model.Project{}
	}
	return out.Projects, nil
}

// CreateProject stores a new project for the signed-in user
func (c *Client) CreateProject(ctx context.Context, fields model.Fields) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodPost, "/projects", fields, &out)
	return out, err
}

// UpdateProject applies a partial update
func (c *Client) UpdateProject(ctx context.Context, id string, patch model.Patch) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), patch, &out)
	return out, err
}

// DeleteProject removes a project
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// Revision returns the signed-in user's change counter
func (c *Client) Revision(ctx context.Context) (int64, error) {
	var out RevisionResponse
	err := c.do(ctx, http.MethodGet, "/projects/revision", nil, &out)
	return out.Revision, err
}
