package sqlite

import (
	"database/sql"
	"fmt"
	"log"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations are applied in order, each exactly once, tracked in schema_version.
var migrations = []migration{
	{
		Version:     1,
		Description: "users and chat_sessions",
		SQL: `
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT,
			is_guest    INTEGER NOT NULL DEFAULT 0,
			guest_id    TEXT,
			created_at  INTEGER NOT NULL,
			last_active INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_sessions (
			id              TEXT PRIMARY KEY,
			owner_id        TEXT NOT NULL,
			title           TEXT NOT NULL,
			messages        TEXT NOT NULL DEFAULT '[]',
			is_guest_chat   INTEGER NOT NULL DEFAULT 0,
			last_message_at INTEGER NOT NULL,
			created_at      INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL,
			version         INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_chat_sessions_owner ON chat_sessions(owner_id, last_message_at DESC);
		`,
	},
	{
		Version:     2,
		Description: "user picture, unique email and guest id, guest cleanup index",
		SQL: `
		ALTER TABLE users ADD COLUMN picture TEXT;
		UPDATE users SET email = NULL WHERE email = '';
		UPDATE users SET guest_id = NULL WHERE guest_id = '';
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_guest_id ON users(guest_id);
		CREATE INDEX IF NOT EXISTS idx_users_guest_activity ON users(is_guest, last_active);
		`,
	},
}

// runMigrations applies every migration newer than the recorded schema version.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version     INTEGER PRIMARY KEY,
			description TEXT,
			applied_at  INTEGER NOT NULL DEFAULT (unixepoch())
		)
	`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	current := 0
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("query schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		log.Printf("[store] applying sqlite migration v%d: %s", m.Version, m.Description)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_version (version, description) VALUES (?, ?)`, m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.Version, err)
		}
	}
	return nil
}
