package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/existflow/vibetrack/internal/model"
)

// ErrEmailTaken is returned when registering an email that already exists
var ErrEmailTaken = errors.New("email already registered")

// ErrAccountExists is returned when a federated identity would take over
// an account that signs in another way
var ErrAccountExists = errors.New("account exists with another sign-in method")

// Repository runs the server's SQL against Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Accounts

const accountColumns = `id, email, display_name, password_hash, COALESCE(federated_uid, ''), created_at`

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.FederatedUID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, model.ErrNotFound
	}
	return a, err
}

// CreateAccount inserts a password account
func (r *Repository) CreateAccount(ctx context.Context, email, displayName, passwordHash string) (model.Account, error) {
	a := model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash,
	).Scan(&a.CreatedAt)
	if isUniqueViolation(err) {
		return model.Account{}, ErrEmailTaken
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail returns model.ErrNotFound for unknown emails
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE email = $1`, email))
}

// GetAccount returns model.ErrNotFound for unknown ids
func (r *Repository) GetAccount(ctx context.Context, id string) (model.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
}

// FederatedAccount returns the account linked to a federated identity,
// creating it when the email is new. An email row that already has a
// password or another federated identity is never relinked.
func (r *Repository) FederatedAccount(ctx context.Context, federatedUID, email, displayName string) (model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE federated_uid = $1`, federatedUID))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("find federated account: %w", err)
	}

	a, err = scanAccount(r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, display_name, federated_uid)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET federated_uid = EXCLUDED.federated_uid
		WHERE users.password_hash = '' AND users.federated_uid IS NULL
		RETURNING `+accountColumns,
		uuid.New().String(), email, displayName, federatedUID,
	))
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, ErrAccountExists
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("link federated account: %w", err)
	}
	return a, nil
}

// Sessions

// CreateSession stores a session token
func (r *Repository) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), userID, token, expiresAt,
	)
	return err
}

// GetSession returns model.ErrNotFound for unknown tokens
func (r *Repository) GetSession(ctx context.Context, token string) (model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions WHERE token = $1`,
		token,
	).Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, model.ErrNotFound
	}
	return s, err
}

// DeleteSession removes a session token
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteExpiredSessions purges sessions that expired before now
func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Projects

const projectColumns = `id, user_id, app_name, llm_name, chat_thread_title, chat_thread_url,
		last_chat_date, app_url, vscode_url, github_ref, firebase_rules_url,
		last_solved_problem, next_problem_to_solve, notes, last_updated_at`

// nextStamp is max(now, newest timestamp + 1) so ordering stays strict
const nextStamp = `GREATEST($%d, (SELECT COALESCE(MAX(last_updated_at), 0) + 1 FROM projects))`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.UserID, &p.AppName, &p.LLMName, &p.ChatThreadTitle, &p.ChatThreadURL,
		&p.LastChatDate, &p.AppURL, &p.VSCodeURL, &p.GitHubRef, &p.FirebaseRulesURL,
		&p.LastSolvedProblem, &p.NextProblemToSolve, &p.Notes, &p.LastUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, model.ErrNotFound
	}
	return p, err
}

// ListProjects returns the user's projects, most recently updated first
func (r *Repository) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = $1
		ORDER BY last_updated_at DESC, id ASC`,
		userID,
	)
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

// CreateProject inserts a project owned by userID
func (r *Repository) CreateProject(ctx context.Context, userID string, f model.Fields, nowMs int64) (model.Project, error) {
	return scanProject(r.db.QueryRowContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, `+fmt.Sprintf(nextStamp, 15)+`)
		RETURNING `+projectColumns,
		uuid.New().String(), userID, f.AppName, f.LLMName, f.ChatThreadTitle, f.ChatThreadURL,
		f.LastChatDate, f.AppURL, f.VSCodeURL, f.GitHubRef, f.FirebaseRulesURL,
		f.LastSolvedProblem, f.NextProblemToSolve, f.Notes, nowMs,
	))
}

// UpdateProject merges the non-nil patch fields. Projects of other users
// are reported as model.ErrNotFound.
func (r *Repository) UpdateProject(ctx context.Context, userID, id string, p model.Patch, nowMs int64) (model.Project, error) {
	return scanProject(r.db.QueryRowContext(ctx, `
		UPDATE projects SET
			app_name = COALESCE($3, app_name),
			llm_name = COALESCE($4, llm_name),
			chat_thread_title = COALESCE($5, chat_thread_title),
			chat_thread_url = COALESCE($6, chat_thread_url),
			last_chat_date = COALESCE($7, last_chat_date),
			app_url = COALESCE($8, app_url),
			vscode_url = COALESCE($9, vscode_url),
			github_ref = COALESCE($10, github_ref),
			firebase_rules_url = COALESCE($11, firebase_rules_url),
			last_solved_problem = COALESCE($12, last_solved_problem),
			next_problem_to_solve = COALESCE($13, next_problem_to_solve),
			notes = COALESCE($14, notes),
			last_updated_at = `+fmt.Sprintf(nextStamp, 15)+`
		WHERE id = $1 AND user_id = $2
		RETURNING `+projectColumns,
		id, userID, p.AppName, p.LLMName, p.ChatThreadTitle, p.ChatThreadURL,
		p.LastChatDate, p.AppURL, p.VSCodeURL, p.GitHubRef, p.FirebaseRulesURL,
		p.LastSolvedProblem, p.NextProblemToSolve, p.Notes, nowMs,
	))
}

// DeleteProject removes the user's project
func (r *Repository) DeleteProject(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
