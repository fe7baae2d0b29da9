// Package jobs holds the periodic maintenance run by cmd/worker.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPurger deletes expired sessions and reports how many were removed.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// jobTimeout bounds a single run so a stuck database never stacks runs.
const jobTimeout = 30 * time.Second

// ScheduleSessionPurge registers the expired-session purge on spec.
func ScheduleSessionPurge(c *cron.Cron, spec string, p SessionPurger) (cron.EntryID, error) {
	return c.AddFunc(spec, func() { PurgeSessions(context.Background(), p) })
}

// PurgeSessions runs one purge and logs the outcome.
func PurgeSessions(ctx context.Context, p SessionPurger) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	n, err := p.PurgeExpiredSessions(ctx)
	if err != nil {
		log.Printf("session purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("purged %d expired sessions", n)
	}
}
