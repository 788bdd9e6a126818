package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/existflow/vibetrack/internal/model"
)

// DBTX is satisfied by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the project statements
type Queries struct {
	db DBTX
}

// New returns queries bound to db
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const projectColumns = `id, user_id, app_name, llm_name, chat_thread_title, chat_thread_url,
    last_chat_date, app_url, vscode_url, github_ref, firebase_rules_url,
    last_solved_problem, next_problem_to_solve, notes, last_updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.UserID, &p.AppName, &p.LLMName, &p.ChatThreadTitle, &p.ChatThreadURL,
		&p.LastChatDate, &p.AppURL, &p.VSCodeURL, &p.GitHubRef, &p.FirebaseRulesURL,
		&p.LastSolvedProblem, &p.NextProblemToSolve, &p.Notes, &p.LastUpdatedAt,
	)
	return p, err
}

const listProjectsByOwner = `SELECT ` + projectColumns + `
FROM projects
WHERE user_id = ?
ORDER BY last_updated_at DESC, id ASC`

// ListProjectsByOwner returns the owner's projects, most recently updated first
func (q *Queries) ListProjectsByOwner(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjectsByOwner, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const getProject = `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

// GetProject returns model.ErrNotFound when id does not exist
func (q *Queries) GetProject(ctx context.Context, id string) (model.Project, error) {
	p, err := scanProject(q.db.QueryRowContext(ctx, getProject, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return p, err
}

const insertProject = `INSERT INTO projects (` + projectColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertProject stores a new project
func (q *Queries) InsertProject(ctx context.Context, p model.Project) error {
	_, err := q.db.ExecContext(ctx, insertProject,
		p.ID, p.UserID, p.AppName, p.LLMName, p.ChatThreadTitle, p.ChatThreadURL,
		p.LastChatDate, p.AppURL, p.VSCodeURL, p.GitHubRef, p.FirebaseRulesURL,
		p.LastSolvedProblem, p.NextProblemToSolve, p.Notes, p.LastUpdatedAt,
	)
	return err
}

const updateProject = `UPDATE projects SET
    app_name = ?, llm_name = ?, chat_thread_title = ?, chat_thread_url = ?,
    last_chat_date = ?, app_url = ?, vscode_url = ?, github_ref = ?,
    firebase_rules_url = ?, last_solved_problem = ?, next_problem_to_solve = ?,
    notes = ?, last_updated_at = ?
WHERE id = ?`

// UpdateProject overwrites the editable fields and timestamp of p
func (q *Queries) UpdateProject(ctx context.Context, p model.Project) error {
	res, err := q.db.ExecContext(ctx, updateProject,
		p.AppName, p.LLMName, p.ChatThreadTitle, p.ChatThreadURL,
		p.LastChatDate, p.AppURL, p.VSCodeURL, p.GitHubRef,
		p.FirebaseRulesURL, p.LastSolvedProblem, p.NextProblemToSolve,
		p.Notes, p.LastUpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, p.ID)
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

// DeleteProject removes a project, returning model.ErrNotFound if it is gone
func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, deleteProject, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

const maxUpdatedAt = `SELECT COALESCE(MAX(last_updated_at), 0) FROM projects`

// MaxUpdatedAt returns the newest timestamp in the store
func (q *Queries) MaxUpdatedAt(ctx context.Context) (int64, error) {
	var v int64
	err := q.db.QueryRowContext(ctx, maxUpdatedAt).Scan(&v)
	return v, err
}

const getRevision = `SELECT value FROM store_meta WHERE key = 'revision'`

// Revision returns the store's change counter
func (q *Queries) Revision(ctx context.Context) (int64, error) {
	var v int64
	err := q.db.QueryRowContext(ctx, getRevision).Scan(&v)
	return v, err
}

const bumpRevision = `UPDATE store_meta SET value = value + 1 WHERE key = 'revision'`

// BumpRevision increments the change counter
func (q *Queries) BumpRevision(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, bumpRevision)
	return err
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return nil
}
