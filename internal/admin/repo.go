package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rollcall/internal/apperr"
	"rollcall/internal/store"
)

// bootstrapLockKey serializes first-admin creation across API processes.
const bootstrapLockKey = 7311001

// Repository persists users, accounts and sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateAdmin inserts the user and its password in one transaction.
func (r *Repository) CreateAdmin(ctx context.Context, u User, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertUser(ctx, tx, u, passwordHash); err != nil {
		return err
	}
	return tx.Commit()
}

// BootstrapAdmin creates u only while no admin exists.
func (r *Repository) BootstrapAdmin(ctx context.Context, u User, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
		return fmt.Errorf("bootstrap lock: %w", err)
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE is_admin = TRUE)`).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return apperr.ErrAdminExists
	}
	if err := insertUser(ctx, tx, u, passwordHash); err != nil {
		return err
	}
	return tx.Commit()
}

func insertUser(ctx context.Context, tx *sql.Tx, u User, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Name, u.Email, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.ErrDuplicateEmail
		}
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (user_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
	`, u.ID, passwordHash, u.CreatedAt)
	return err
}

// GetUser returns a user by id, nil when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, is_admin, created_at, updated_at FROM users WHERE id = $1
	`, id))
}

// GetUserByEmail returns a user by email, nil when absent.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, is_admin, created_at, updated_at FROM users WHERE email = $1
	`, email))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// PasswordHash returns the stored hash for userID, empty when the user has no password.
func (r *Repository) PasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM accounts WHERE user_id = $1`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// ListAdmins returns admins newest first.
func (r *Repository) ListAdmins(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, is_admin, created_at, updated_at
		FROM users WHERE is_admin = TRUE
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountAdmins returns the number of admins.
func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = TRUE`).Scan(&n)
	return n, err
}

// DeleteAdmin locks every admin row, recounts and deletes in one transaction, so two
// concurrent deletes can never remove the last two admins.
func (r *Repository) DeleteAdmin(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM users WHERE is_admin = TRUE FOR UPDATE`)
	if err != nil {
		return err
	}
	var (
		count int
		found bool
	)
	for rows.Next() {
		var adminID string
		if err := rows.Scan(&adminID); err != nil {
			rows.Close()
			return err
		}
		count++
		if adminID == id {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if count <= 1 {
		return apperr.ErrLastAdmin
	}
	if !found {
		return apperr.ErrAdminNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateSession stores a session.
func (r *Repository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.IPAddress, s.UserAgent, s.CreatedAt)
	return err
}

// SessionByTokenHash returns the session owning tokenHash, nil when absent.
func (r *Repository) SessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, ip_address, user_agent, created_at
		FROM sessions WHERE token_hash = $1
	`, tokenHash)
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session and reports whether it still existed.
func (r *Repository) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeExpiredSessions deletes every session that expired before now.
func (r *Repository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
