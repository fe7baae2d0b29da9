package attendance

import (
	"context"
	"math"

	"rollcall/internal/member"
)

// MemberStat is a member with their attendance share.
type MemberStat struct {
	member.Member
	DaysAttended         int `json:"days_attended"`
	TotalDays            int `json:"total_days"`
	AttendancePercentage int `json:"attendance_percentage"`
}

// Dashboard summarises the whole ledger.
type Dashboard struct {
	TotalMembers    int     `json:"total_members"`
	TodayAttendance int     `json:"today_attendance"`
	TodayPercentage int     `json:"today_percentage"`
	TotalDays       int     `json:"total_days"`
	TotalCheckins   int     `json:"total_checkins"`
	AvgAttendance   float64 `json:"avg_attendance"`
}

// Percentage is attended/totalDays as a whole percent, rounding halves up, and 0 without days.
// Every member is measured against the global day count, including members who joined late.
func Percentage(attended, totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	return int(math.Floor(float64(attended)/float64(totalDays)*100 + 0.5))
}

// AverageAttendance is checkins/(members*days) as a percent with one decimal, 0 when either
// members or days is zero.
func AverageAttendance(totalCheckins, totalMembers, totalDays int) float64 {
	if totalMembers <= 0 || totalDays <= 0 {
		return 0
	}
	v := float64(totalCheckins) / float64(totalMembers*totalDays) * 100
	return math.Round(v*10) / 10
}

// MemberStats lists every member, ordered by name, with their attendance share.
func (s *Service) MemberStats(ctx context.Context) ([]MemberStat, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Totals(ctx, s.Today())
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountsByMember(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]MemberStat, 0, len(members))
	for _, m := range members {
		attended := counts[m.ID]
		res = append(res, MemberStat{
			Member:               m,
			DaysAttended:         attended,
			TotalDays:            totals.Days,
			AttendancePercentage: Percentage(attended, totals.Days),
		})
	}
	return res, nil
}

// Dashboard computes the overview figures.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	totalMembers, err := s.members.CountMembers(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	totals, err := s.store.Totals(ctx, s.Today())
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		TotalMembers:    totalMembers,
		TodayAttendance: totals.OnDate,
		TodayPercentage: Percentage(totals.OnDate, totalMembers),
		TotalDays:       totals.Days,
		TotalCheckins:   totals.Checkins,
		AvgAttendance:   AverageAttendance(totals.Checkins, totalMembers, totals.Days),
	}, nil
}
