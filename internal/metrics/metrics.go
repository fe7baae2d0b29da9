// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcomes.
const (
	OutcomeFresh         = "fresh"
	OutcomeDuplicate     = "duplicate"
	OutcomeUnknownMember = "unknown_member"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	checkIns        *prometheus.CounterVec
	presenceChanges *prometheus.CounterVec
	recordsDeleted  prometheus.Counter
	adminChanges    *prometheus.CounterVec
	sessionsPurged  prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		checkIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_checkins_total",
			Help: "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		presenceChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_presence_changes_total",
			Help: "Manual presence toggles by requested state.",
		}, []string{"present"}),
		recordsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_day_records_deleted_total",
			Help: "Attendance records removed by whole-day deletes.",
		}),
		adminChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_admin_changes_total",
			Help: "Admin account changes by action.",
		}, []string{"action"}),
		sessionsPurged: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_sessions_purged_total",
			Help: "Expired sessions removed by the maintenance worker.",
		}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// CheckIn counts a check-in attempt by outcome.
func (m *Metrics) CheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(outcome).Inc()
}

// PresenceChanged counts a manual presence toggle.
func (m *Metrics) PresenceChanged(present bool) {
	if m == nil {
		return
	}
	m.presenceChanges.WithLabelValues(strconv.FormatBool(present)).Inc()
}

// DayDeleted counts the records removed with a day.
func (m *Metrics) DayDeleted(records int64) {
	if m == nil {
		return
	}
	m.recordsDeleted.Add(float64(records))
}

// AdminChanged counts an admin create, bootstrap or delete.
func (m *Metrics) AdminChanged(action string) {
	if m == nil {
		return
	}
	m.adminChanges.WithLabelValues(action).Inc()
}

// SessionsPurged counts expired sessions removed by the worker.
func (m *Metrics) SessionsPurged(n int64) {
	if m == nil {
		return
	}
	m.sessionsPurged.Add(float64(n))
}

// GinMiddleware observes request latency labelled with the matched route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
