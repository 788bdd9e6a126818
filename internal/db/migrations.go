package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateProjects,
		migrationCreateStoreMeta,
		migrationInsertRevision,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateProjects = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
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
    last_updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(user_id, last_updated_at DESC);
`

const migrationCreateStoreMeta = `
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);
`

const migrationInsertRevision = `
INSERT OR IGNORE INTO store_meta (key, value) VALUES ('revision', 0);
`
