package server

import "fmt"

// migrate runs database migrations
func (s *Server) migrate() error {
	migrations := []string{
		migrationUsers,
		migrationSessions,
		migrationProjects,
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    display_name VARCHAR(255) NOT NULL DEFAULT '',
    password_hash VARCHAR(255) NOT NULL DEFAULT '',
    federated_uid VARCHAR(128) UNIQUE,
    created_at TIMESTAMP DEFAULT NOW()
);
`

const migrationSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token VARCHAR(64) UNIQUE NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

const migrationProjects = `
CREATE TABLE IF NOT EXISTS projects (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    app_name TEXT NOT NULL,
    llm_name TEXT NOT NULL,
    chat_thread_title TEXT NOT NULL,
    chat_thread_url TEXT NOT NULL,
    last_chat_date TEXT NOT NULL,
    app_url TEXT NOT NULL DEFAULT '',
    vscode_url TEXT NOT NULL DEFAULT '',
    github_ref TEXT NOT NULL DEFAULT '',
    firebase_rules_url TEXT NOT NULL DEFAULT '',
    last_solved_problem TEXT NOT NULL DEFAULT '',
    next_problem_to_solve TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    last_updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(user_id, last_updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(last_updated_at);
`
