package attendance

import (
	"context"
	"database/sql"
	"errors"

	"rollcall/internal/apperr"
	"rollcall/internal/store"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertRecord relies on the (member_id, date) unique constraint, so concurrent check-ins
// for the same member and day produce exactly one row.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, member_id, date, checked_in_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (member_id, date) DO NOTHING
	`, rec.ID, rec.MemberID, rec.Date, rec.CheckedInAt, rec.CreatedAt)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return false, apperr.ErrMemberNotFound
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteRecord removes the record for (memberID, date) if any.
func (r *Repository) DeleteRecord(ctx context.Context, memberID, date string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance_records WHERE member_id = $1 AND date = $2
	`, memberID, date)
	return err
}

// FindRecord returns the record for (memberID, date), nil when absent.
func (r *Repository) FindRecord(ctx context.Context, memberID, date string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, member_id, date, checked_in_at, created_at
		FROM attendance_records WHERE member_id = $1 AND date = $2
	`, memberID, date)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.MemberID, &rec.Date, &rec.CheckedInAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Roster left-joins every member against the records of date.
func (r *Repository) Roster(ctx context.Context, date string) ([]RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.name, a.id, a.checked_in_at
		FROM members m
		LEFT JOIN attendance_records a ON a.member_id = m.id AND a.date = $1
		ORDER BY m.name, m.id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]RosterEntry, 0)
	for rows.Next() {
		var (
			e         RosterEntry
			recordID  sql.NullString
			checkedIn sql.NullTime
		)
		if err := rows.Scan(&e.MemberID, &e.MemberName, &recordID, &checkedIn); err != nil {
			return nil, err
		}
		if recordID.Valid {
			id, at := recordID.String, checkedIn.Time
			e.Present = true
			e.RecordID = &id
			e.CheckedInAt = &at
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Feed returns the check-ins of date in check-in order.
func (r *Repository) Feed(ctx context.Context, date string) ([]FeedEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.member_id, m.name, a.checked_in_at
		FROM attendance_records a
		JOIN members m ON m.id = a.member_id
		WHERE a.date = $1
		ORDER BY a.checked_in_at, a.id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]FeedEntry, 0)
	for rows.Next() {
		var e FeedEntry
		if err := rows.Scan(&e.ID, &e.MemberID, &e.MemberName, &e.CheckedInAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListDays returns the distinct dates with records, most recent first.
func (r *Repository) ListDays(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT date FROM attendance_records ORDER BY date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// DeleteDay removes every record of date.
func (r *Repository) DeleteDay(ctx context.Context, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE date = $1`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Totals computes ledger-wide counts in one pass.
func (r *Repository) Totals(ctx context.Context, date string) (Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT date), COUNT(*), COUNT(*) FILTER (WHERE date = $1)
		FROM attendance_records
	`, date).Scan(&t.Days, &t.Checkins, &t.OnDate)
	return t, err
}

// CountsByMember returns the number of attended days per member id.
func (r *Repository) CountsByMember(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id, COUNT(*) FROM attendance_records GROUP BY member_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
