package attendance

import (
	"context"
	"strings"
	"time"

	"rollcall/internal/apperr"
	"rollcall/internal/member"
)

// DateLayout is the canonical calendar-day key. Lexicographic order equals chronological order.
const DateLayout = "2006-01-02"

// Record is the presence of one member on one day. Absence has no record.
type Record struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	Date        string    `json:"date"`
	CheckedInAt time.Time `json:"checked_in_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// RosterEntry is one member's state on a given day.
type RosterEntry struct {
	MemberID    string     `json:"member_id"`
	MemberName  string     `json:"member_name"`
	Present     bool       `json:"present"`
	RecordID    *string    `json:"record_id"`
	CheckedInAt *time.Time `json:"checked_in_at"`
}

// FeedEntry is one check-in of the day's activity feed.
type FeedEntry struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	MemberName  string    `json:"member_name"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Totals are ledger-wide counts.
type Totals struct {
	Days     int // distinct dates with at least one record
	Checkins int // all records
	OnDate   int // records on the requested date
}

// Store persists the ledger. The store owns the at-most-one-record-per-(member, date) rule:
// InsertRecord must be atomic and report inserted=false when a record already exists.
type Store interface {
	InsertRecord(ctx context.Context, rec Record) (inserted bool, err error)
	DeleteRecord(ctx context.Context, memberID, date string) error
	FindRecord(ctx context.Context, memberID, date string) (*Record, error)
	Roster(ctx context.Context, date string) ([]RosterEntry, error)
	Feed(ctx context.Context, date string) ([]FeedEntry, error)
	ListDays(ctx context.Context) ([]string, error)
	DeleteDay(ctx context.Context, date string) (int64, error)
	Totals(ctx context.Context, date string) (Totals, error)
	CountsByMember(ctx context.Context) (map[string]int, error)
}

// MemberDirectory is the part of the member registry the ledger reads.
type MemberDirectory interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
	ListMembers(ctx context.Context) ([]member.Member, error)
	CountMembers(ctx context.Context) (int, error)
}

// DateKey formats t as a day key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey validates a YYYY-MM-DD day key and returns it in canonical form.
func ParseDateKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", apperr.Validation("date must be a calendar day formatted as YYYY-MM-DD")
	}
	return DateKey(t), nil
}
