package member

import (
	"context"
	"database/sql"
	"errors"

	"rollcall/internal/apperr"
)

// Repository persists members in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateMember inserts a new member row.
func (r *Repository) CreateMember(ctx context.Context, m Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Name, m.Email, m.CreatedAt, m.UpdatedAt)
	return err
}

// UpdateMember overwrites name, email and updated_at.
func (r *Repository) UpdateMember(ctx context.Context, m Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
	`, m.ID, m.Name, m.Email, m.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteMember removes the member; attendance rows go with it through ON DELETE CASCADE.
func (r *Repository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetMember returns a member by id, nil when absent.
func (r *Repository) GetMember(ctx context.Context, id string) (*Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at, updated_at FROM members WHERE id = $1
	`, id)
	var m Member
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (r *Repository) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, created_at, updated_at FROM members ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountMembers returns the registry size.
func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrMemberNotFound
	}
	return nil
}
