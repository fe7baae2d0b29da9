package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup. The (member_id, date) uniqueness is what makes
// presence inserts atomic; the service never relies on a read-then-insert check.
const schema = `
CREATE TABLE IF NOT EXISTS members (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id             TEXT PRIMARY KEY,
	member_id      TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
	date           TEXT NOT NULL,
	checked_in_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT attendance_records_member_date_key UNIQUE (member_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_date ON attendance_records(date);

CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	is_admin    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS accounts (
	user_id        TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash  TEXT NOT NULL UNIQUE,
	expires_at  TIMESTAMPTZ NOT NULL,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
