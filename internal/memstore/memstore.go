// Package memstore is a mutex-guarded in-memory backend for dev and testing. It implements the
// member, attendance and admin stores over shared state, so member deletes cascade to the ledger
// and user deletes cascade to sessions, as they do in Postgres.
//
// Names are ordered case-insensitively. That approximates a typical Postgres collation but does
// not reproduce it: accented names may sort differently than under the database's ORDER BY.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rollcall/internal/admin"
	"rollcall/internal/apperr"
	"rollcall/internal/attendance"
	"rollcall/internal/member"
)

type recordKey struct {
	memberID string
	date     string
}

// Store holds every table in memory.
type Store struct {
	mu       sync.Mutex
	members  map[string]member.Member
	records  map[recordKey]attendance.Record
	users    map[string]admin.User
	accounts map[string]string
	sessions map[string]admin.Session
}

var (
	_ member.Store     = (*Store)(nil)
	_ attendance.Store = (*Store)(nil)
	_ admin.Store      = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		members:  make(map[string]member.Member),
		records:  make(map[recordKey]attendance.Record),
		users:    make(map[string]admin.User),
		accounts: make(map[string]string),
		sessions: make(map[string]admin.Session),
	}
}

// -------- Members --------

// CreateMember stores m.
func (s *Store) CreateMember(_ context.Context, m member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = cloneMember(m)
	return nil
}

// UpdateMember overwrites an existing member.
func (s *Store) UpdateMember(_ context.Context, m member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[m.ID]
	if !ok {
		return apperr.ErrMemberNotFound
	}
	existing.Name = m.Name
	existing.Email = m.Email
	existing.UpdatedAt = m.UpdatedAt
	s.members[m.ID] = cloneMember(existing)
	return nil
}

// DeleteMember removes a member and its records.
func (s *Store) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return apperr.ErrMemberNotFound
	}
	delete(s.members, id)
	for k := range s.records {
		if k.memberID == id {
			delete(s.records, k)
		}
	}
	return nil
}

// GetMember returns a copy of the member, nil when absent.
func (s *Store) GetMember(_ context.Context, id string) (*member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	m = cloneMember(m)
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (s *Store) ListMembers(_ context.Context) ([]member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedMembers(), nil
}

// CountMembers returns the number of members.
func (s *Store) CountMembers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members), nil
}

func (s *Store) sortedMembers() []member.Member {
	out := make([]member.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneMember(m member.Member) member.Member {
	if m.Email != nil {
		email := *m.Email
		m.Email = &email
	}
	return m
}

// -------- Attendance --------

// InsertRecord adds rec unless the member already has a record that day.
func (s *Store) InsertRecord(_ context.Context, rec attendance.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[rec.MemberID]; !ok {
		return false, apperr.ErrMemberNotFound
	}
	key := recordKey{rec.MemberID, rec.Date}
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = rec
	return true, nil
}

// DeleteRecord removes the record for (memberID, date) if any.
func (s *Store) DeleteRecord(_ context.Context, memberID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordKey{memberID, date})
	return nil
}

// FindRecord returns the record for (memberID, date), nil when absent.
func (s *Store) FindRecord(_ context.Context, memberID, date string) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordKey{memberID, date}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Roster lists every member with their presence on date.
func (s *Store) Roster(_ context.Context, date string) ([]attendance.RosterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.sortedMembers()
	out := make([]attendance.RosterEntry, 0, len(members))
	for _, m := range members {
		e := attendance.RosterEntry{MemberID: m.ID, MemberName: m.Name}
		if rec, ok := s.records[recordKey{m.ID, date}]; ok {
			id, at := rec.ID, rec.CheckedInAt
			e.Present = true
			e.RecordID = &id
			e.CheckedInAt = &at
		}
		out = append(out, e)
	}
	return out, nil
}

// Feed returns the check-ins of date in check-in order.
func (s *Store) Feed(_ context.Context, date string) ([]attendance.FeedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]attendance.FeedEntry, 0)
	for k, rec := range s.records {
		if k.date != date {
			continue
		}
		out = append(out, attendance.FeedEntry{
			ID:          rec.ID,
			MemberID:    rec.MemberID,
			MemberName:  s.members[rec.MemberID].Name,
			CheckedInAt: rec.CheckedInAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckedInAt.Equal(out[j].CheckedInAt) {
			return out[i].CheckedInAt.Before(out[j].CheckedInAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListDays returns the dates with records, most recent first.
func (s *Store) ListDays(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := s.distinctDays()
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// DeleteDay removes every record of date.
func (s *Store) DeleteDay(_ context.Context, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.records {
		if k.date == date {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

// Totals computes ledger-wide counts.
func (s *Store) Totals(_ context.Context, date string) (attendance.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := attendance.Totals{Days: len(s.distinctDays()), Checkins: len(s.records)}
	for k := range s.records {
		if k.date == date {
			t.OnDate++
		}
	}
	return t, nil
}

// CountsByMember returns attended days per member id.
func (s *Store) CountsByMember(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for k := range s.records {
		counts[k.memberID]++
	}
	return counts, nil
}

func (s *Store) distinctDays() map[string]struct{} {
	days := make(map[string]struct{})
	for k := range s.records {
		days[k.date] = struct{}{}
	}
	return days
}

// -------- Admins --------

// CreateAdmin stores u with its password hash.
func (s *Store) CreateAdmin(_ context.Context, u admin.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(u, passwordHash)
}

// BootstrapAdmin stores u only while no admin exists.
func (s *Store) BootstrapAdmin(_ context.Context, u admin.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminCount() > 0 {
		return apperr.ErrAdminExists
	}
	return s.insertUser(u, passwordHash)
}

func (s *Store) insertUser(u admin.User, passwordHash string) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperr.ErrDuplicateEmail
		}
	}
	s.users[u.ID] = u
	s.accounts[u.ID] = passwordHash
	return nil
}

// GetUser returns a user by id, nil when absent.
func (s *Store) GetUser(_ context.Context, id string) (*admin.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, nil when absent.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*admin.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// PasswordHash returns the stored hash for userID.
func (s *Store) PasswordHash(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID], nil
}

// ListAdmins returns admins newest first.
func (s *Store) ListAdmins(_ context.Context) ([]admin.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]admin.User, 0)
	for _, u := range s.users {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountAdmins returns the number of admins.
func (s *Store) CountAdmins(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminCount(), nil
}

// DeleteAdmin removes an admin unless it is the last one.
func (s *Store) DeleteAdmin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminCount() <= 1 {
		return apperr.ErrLastAdmin
	}
	u, ok := s.users[id]
	if !ok || !u.IsAdmin {
		return apperr.ErrAdminNotFound
	}
	delete(s.users, id)
	delete(s.accounts, id)
	for sid, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, sid)
		}
	}
	return nil
}

func (s *Store) adminCount() int {
	n := 0
	for _, u := range s.users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}

// -------- Sessions --------

// CreateSession stores a session for an existing user.
func (s *Store) CreateSession(_ context.Context, sess admin.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[sess.UserID]; !ok {
		return apperr.ErrAdminNotFound
	}
	s.sessions[sess.ID] = sess
	return nil
}

// SessionByTokenHash returns the session owning tokenHash, nil when absent.
func (s *Store) SessionByTokenHash(_ context.Context, tokenHash string) (*admin.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.TokenHash == tokenHash {
			return &sess, nil
		}
	}
	return nil, nil
}

// DeleteSession removes a session and reports whether it existed.
func (s *Store) DeleteSession(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

// PurgeExpiredSessions deletes sessions that expired before now.
func (s *Store) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
