package attendance

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
	"rollcall/internal/metrics"
)

// CheckedInMember identifies who was checked in.
type CheckedInMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CheckInResult reports a successful check-in. AlreadyCheckedIn distinguishes a repeated scan
// from a fresh one; both are successes.
type CheckInResult struct {
	Success          bool            `json:"success"`
	AlreadyCheckedIn bool            `json:"already_checked_in"`
	Member           CheckedInMember `json:"member"`
}

// Service coordinates the ledger, scan check-ins and derived statistics.
type Service struct {
	store   Store
	members MemberDirectory
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a service backed by a ledger store and the member registry.
func NewService(store Store, members MemberDirectory, m *metrics.Metrics) *Service {
	return &Service{store: store, members: members, metrics: m, now: time.Now}
}

// Today is the current day key in the server's local calendar.
func (s *Service) Today() string {
	return DateKey(s.now())
}

// SetPresent marks memberID present or absent on date. Both directions are idempotent and
// marking present again never refreshes the original check-in time.
func (s *Service) SetPresent(ctx context.Context, memberID, date string, present bool) error {
	date, err := ParseDateKey(date)
	if err != nil {
		return err
	}
	if strings.TrimSpace(memberID) == "" {
		return apperr.ErrMemberNotFound
	}
	if present {
		if _, err := s.insert(ctx, memberID, date); err != nil {
			return err
		}
	} else if err := s.store.DeleteRecord(ctx, memberID, date); err != nil {
		return err
	}
	s.metrics.PresenceChanged(present)
	return nil
}

// ForDate returns every registered member with their presence on date.
func (s *Service) ForDate(ctx context.Context, date string) ([]RosterEntry, error) {
	date, err := ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	return s.store.Roster(ctx, date)
}

// Days lists the dates that have at least one record, most recent first.
// A day whose last record was removed is no longer listed.
func (s *Service) Days(ctx context.Context) ([]string, error) {
	return s.store.ListDays(ctx)
}

// DeleteDay removes all records of date and reports how many were removed.
func (s *Service) DeleteDay(ctx context.Context, date string) (int64, error) {
	date, err := ParseDateKey(date)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteDay(ctx, date)
	if err != nil {
		return 0, err
	}
	log.Printf("attendance day %s deleted (%d records)", date, n)
	s.metrics.DayDeleted(n)
	return n, nil
}

// CheckIn records today's presence for a scanned member id.
func (s *Service) CheckIn(ctx context.Context, memberID string) (CheckInResult, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		s.metrics.CheckIn(metrics.OutcomeUnknownMember)
		return CheckInResult{}, apperr.ErrMemberNotFound
	}
	m, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return CheckInResult{}, err
	}
	if m == nil {
		s.metrics.CheckIn(metrics.OutcomeUnknownMember)
		return CheckInResult{}, apperr.ErrMemberNotFound
	}

	inserted, err := s.insert(ctx, m.ID, s.Today())
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			s.metrics.CheckIn(metrics.OutcomeUnknownMember)
		}
		return CheckInResult{}, err
	}
	if inserted {
		s.metrics.CheckIn(metrics.OutcomeFresh)
	} else {
		s.metrics.CheckIn(metrics.OutcomeDuplicate)
	}
	return CheckInResult{
		Success:          true,
		AlreadyCheckedIn: !inserted,
		Member:           CheckedInMember{ID: m.ID, Name: m.Name},
	}, nil
}

// TodayFeed returns today's check-ins ordered by check-in time.
func (s *Service) TodayFeed(ctx context.Context) ([]FeedEntry, error) {
	return s.store.Feed(ctx, s.Today())
}

func (s *Service) insert(ctx context.Context, memberID, date string) (bool, error) {
	now := s.now().UTC()
	return s.store.InsertRecord(ctx, Record{
		ID:          uuid.NewString(),
		MemberID:    memberID,
		Date:        date,
		CheckedInAt: now,
		CreatedAt:   now,
	})
}
