package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rollcall/internal/apperr"
	"rollcall/internal/attendance"
	"rollcall/internal/member"
	"rollcall/internal/memstore"
	"rollcall/internal/metrics"
)

type fixture struct {
	store   *memstore.Store
	members *member.Service
	ledger  *attendance.Service
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{
		store:   st,
		members: member.NewService(st),
		ledger:  attendance.NewService(st, st, metrics.New(prometheus.NewRegistry())),
		clock:   time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local),
	}
	f.ledger.SetClock(func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	})
	return f
}

func (f *fixture) addMember(t *testing.T, name string) member.Member {
	t.Helper()
	m, err := f.members.Create(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func (f *fixture) recordCount(t *testing.T, memberID, date string) int {
	t.Helper()
	rec, err := f.store.FindRecord(context.Background(), memberID, date)
	if err != nil {
		t.Fatalf("find record: %v", err)
	}
	if rec == nil {
		return 0
	}
	return 1
}

func TestSetPresentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Ada")

	if err := f.ledger.SetPresent(ctx, m.ID, "2024-06-01", true); err != nil {
		t.Fatalf("first set: %v", err)
	}
	first, _ := f.store.FindRecord(ctx, m.ID, "2024-06-01")
	if err := f.ledger.SetPresent(ctx, m.ID, "2024-06-01", true); err != nil {
		t.Fatalf("second set: %v", err)
	}
	second, _ := f.store.FindRecord(ctx, m.ID, "2024-06-01")

	if f.recordCount(t, m.ID, "2024-06-01") != 1 {
		t.Fatalf("expected exactly one record")
	}
	if first.ID != second.ID || !first.CheckedInAt.Equal(second.CheckedInAt) {
		t.Fatalf("second set refreshed the record: %+v vs %+v", first, second)
	}
}

func TestSetPresentThenAbsentRemovesRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Ada")

	if err := f.ledger.SetPresent(ctx, m.ID, "2024-06-01", true); err != nil {
		t.Fatalf("set present: %v", err)
	}
	if err := f.ledger.SetPresent(ctx, m.ID, "2024-06-01", false); err != nil {
		t.Fatalf("set absent: %v", err)
	}
	if f.recordCount(t, m.ID, "2024-06-01") != 0 {
		t.Fatalf("record survived")
	}
	// absent again is a no-op
	if err := f.ledger.SetPresent(ctx, m.ID, "2024-06-01", false); err != nil {
		t.Fatalf("repeat absent: %v", err)
	}
	days, _ := f.ledger.Days(ctx)
	if len(days) != 0 {
		t.Fatalf("emptied day still listed: %v", days)
	}
}

func TestSetPresentValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Ada")

	if err := f.ledger.SetPresent(ctx, m.ID, "June 1st", true); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("bad date: got %v", err)
	}
	if err := f.ledger.SetPresent(ctx, "ghost", "2024-06-01", true); err != apperr.ErrMemberNotFound {
		t.Fatalf("unknown member: got %v", err)
	}
}

func TestForDateListsEveryMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carol := f.addMember(t, "Carol")
	alice := f.addMember(t, "Alice")
	f.addMember(t, "Bob")

	_ = f.ledger.SetPresent(ctx, carol.ID, "2024-06-01", true)
	_ = f.ledger.SetPresent(ctx, alice.ID, "2024-06-02", true)

	roster, err := f.ledger.ForDate(ctx, "2024-06-01")
	if err != nil {
		t.Fatalf("for date: %v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("roster size = %d, want 3", len(roster))
	}
	wantNames := []string{"Alice", "Bob", "Carol"}
	for i, e := range roster {
		if e.MemberName != wantNames[i] {
			t.Fatalf("roster[%d] = %s, want %s", i, e.MemberName, wantNames[i])
		}
		present := e.MemberID == carol.ID
		if e.Present != present {
			t.Fatalf("%s present = %v", e.MemberName, e.Present)
		}
		if !present && (e.RecordID != nil || e.CheckedInAt != nil) {
			t.Fatalf("absent member carries record data: %+v", e)
		}
		if present && (e.RecordID == nil || e.CheckedInAt == nil) {
			t.Fatalf("present member missing record data: %+v", e)
		}
	}

	empty, err := f.ledger.ForDate(ctx, "2030-01-01")
	if err != nil || len(empty) != 3 {
		t.Fatalf("day without records: %d entries, %v", len(empty), err)
	}
}

func TestDaysMostRecentFirstAndDeleteDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addMember(t, "A")
	b := f.addMember(t, "B")

	for _, d := range []string{"2024-05-30", "2024-06-02", "2024-06-01"} {
		_ = f.ledger.SetPresent(ctx, a.ID, d, true)
	}
	_ = f.ledger.SetPresent(ctx, b.ID, "2024-06-02", true)

	days, err := f.ledger.Days(ctx)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	want := []string{"2024-06-02", "2024-06-01", "2024-05-30"}
	if len(days) != len(want) {
		t.Fatalf("days = %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days = %v, want %v", days, want)
		}
	}

	n, err := f.ledger.DeleteDay(ctx, "2024-06-02")
	if err != nil || n != 2 {
		t.Fatalf("delete day: n=%d err=%v", n, err)
	}
	days, _ = f.ledger.Days(ctx)
	for _, d := range days {
		if d == "2024-06-02" {
			t.Fatalf("deleted day still listed")
		}
	}
	roster, _ := f.ledger.ForDate(ctx, "2024-06-02")
	for _, e := range roster {
		if e.Present {
			t.Fatalf("record survived day delete: %+v", e)
		}
	}
}

func TestCheckInTwiceSameDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Ada")

	first, err := f.ledger.CheckIn(ctx, m.ID)
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if !first.Success || first.AlreadyCheckedIn || first.Member.Name != "Ada" {
		t.Fatalf("first result = %+v", first)
	}
	second, err := f.ledger.CheckIn(ctx, m.ID)
	if err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if !second.Success || !second.AlreadyCheckedIn {
		t.Fatalf("second result = %+v", second)
	}
	if f.recordCount(t, m.ID, "2024-06-03") != 1 {
		t.Fatalf("expected one record for today")
	}
}

func TestCheckInUnknownMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMember(t, "Ada")

	for _, id := range []string{"not-a-member", "", "   "} {
		if _, err := f.ledger.CheckIn(ctx, id); err != apperr.ErrMemberNotFound {
			t.Fatalf("CheckIn(%q) = %v", id, err)
		}
	}
	totals, _ := f.store.Totals(ctx, "2024-06-03")
	if totals.Checkins != 0 {
		t.Fatalf("unknown check-in created %d records", totals.Checkins)
	}
}

func TestConcurrentCheckInsCreateOneRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.addMember(t, "Ada")
	f.ledger.SetClock(func() time.Time { return time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local) })

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fresh int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.ledger.CheckIn(ctx, m.ID)
			if err != nil {
				t.Errorf("check-in: %v", err)
				return
			}
			if !res.AlreadyCheckedIn {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if fresh != 1 {
		t.Fatalf("fresh check-ins = %d, want 1", fresh)
	}
}

func TestTodayFeedOrderedByCheckInTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	zed := f.addMember(t, "Zed")
	amy := f.addMember(t, "Amy")
	other := f.addMember(t, "Other")

	_ = f.ledger.SetPresent(ctx, other.ID, "2024-06-02", true)
	if _, err := f.ledger.CheckIn(ctx, zed.ID); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := f.ledger.CheckIn(ctx, amy.ID); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	feed, err := f.ledger.TodayFeed(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 2 || feed[0].MemberName != "Zed" || feed[1].MemberName != "Amy" {
		t.Fatalf("feed = %+v", feed)
	}
}

func TestMemberStatsUseGlobalTotalDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	regular := f.addMember(t, "Regular")
	late := f.addMember(t, "Late")
	f.addMember(t, "Never")

	for _, d := range []string{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04"} {
		_ = f.ledger.SetPresent(ctx, regular.ID, d, true)
	}
	_ = f.ledger.SetPresent(ctx, regular.ID, "2024-06-04", false)
	_ = f.ledger.SetPresent(ctx, late.ID, "2024-06-04", true)

	stats, err := f.ledger.MemberStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	got := map[string]attendance.MemberStat{}
	for _, s := range stats {
		got[s.Name] = s
	}
	if s := got["Regular"]; s.DaysAttended != 3 || s.TotalDays != 4 || s.AttendancePercentage != 75 {
		t.Fatalf("regular = %+v", s)
	}
	if s := got["Late"]; s.DaysAttended != 1 || s.AttendancePercentage != 25 {
		t.Fatalf("late = %+v", s)
	}
	if s := got["Never"]; s.DaysAttended != 0 || s.AttendancePercentage != 0 {
		t.Fatalf("never = %+v", s)
	}
}

func TestDeletingMemberCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	keep := f.addMember(t, "Keep")
	gone := f.addMember(t, "Gone")

	_ = f.ledger.SetPresent(ctx, keep.ID, "2024-06-01", true)
	_ = f.ledger.SetPresent(ctx, gone.ID, "2024-06-01", true)
	_ = f.ledger.SetPresent(ctx, gone.ID, "2024-06-02", true)

	stats, _ := f.ledger.MemberStats(ctx)
	for _, s := range stats {
		if s.Name == "Keep" && s.AttendancePercentage != 50 {
			t.Fatalf("before delete keep = %+v", s)
		}
	}

	if err := f.members.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	roster, _ := f.ledger.ForDate(ctx, "2024-06-01")
	if len(roster) != 1 || roster[0].MemberID != keep.ID {
		t.Fatalf("roster after delete = %+v", roster)
	}
	days, _ := f.ledger.Days(ctx)
	if len(days) != 1 || days[0] != "2024-06-01" {
		t.Fatalf("days after delete = %v", days)
	}
	stats, _ = f.ledger.MemberStats(ctx)
	if len(stats) != 1 || stats[0].TotalDays != 1 || stats[0].AttendancePercentage != 100 {
		t.Fatalf("stats after delete = %+v", stats)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	empty, err := f.ledger.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if empty != (attendance.Dashboard{}) {
		t.Fatalf("empty dashboard = %+v", empty)
	}

	a := f.addMember(t, "A")
	b := f.addMember(t, "B")
	f.addMember(t, "C")
	_ = f.ledger.SetPresent(ctx, a.ID, "2024-06-01", true)
	_ = f.ledger.SetPresent(ctx, b.ID, "2024-06-01", true)
	if _, err := f.ledger.CheckIn(ctx, a.ID); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	d, err := f.ledger.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	want := attendance.Dashboard{
		TotalMembers:    3,
		TodayAttendance: 1,
		TodayPercentage: 33,
		TotalDays:       2,
		TotalCheckins:   3,
		AvgAttendance:   50,
	}
	if d != want {
		t.Fatalf("dashboard = %+v, want %+v", d, want)
	}
}
