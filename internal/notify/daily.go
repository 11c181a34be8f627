package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"classtrack/internal/metrics"
	"classtrack/internal/schedule"
)

// ScheduleLister is the slice of the schedule registry the digest needs.
type ScheduleLister interface {
	ListByDay(ctx context.Context, day string) ([]schedule.Schedule, error)
}

// DailyDigest emails the day's class schedule to a single recipient once per
// day. Failures are logged and swallowed; the job never retries and never
// affects request handling or later runs.
type DailyDigest struct {
	schedules ScheduleLister
	email     EmailService
	to        string
	now       func() time.Time
}

// NewDailyDigest creates a digest job.
func NewDailyDigest(schedules ScheduleLister, email EmailService, to string) *DailyDigest {
	return &DailyDigest{
		schedules: schedules,
		email:     email,
		to:        to,
		now:       time.Now,
	}
}

// Start registers the job on a cron scheduler with the given spec and starts
// it on its own goroutine. The returned cron can be stopped at shutdown.
func (d *DailyDigest) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, d.Run); err != nil {
		return nil, fmt.Errorf("invalid notify cron spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// Run sends today's digest. Safe to call from cron or by hand.
func (d *DailyDigest) Run() {
	if d.to == "" {
		log.Println("daily digest: no recipient configured, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := d.now()
	weekday := today.Weekday().String()

	entries, err := d.schedules.ListByDay(ctx, weekday)
	if err != nil {
		log.Printf("daily digest: listing schedules for %s failed: %v", weekday, err)
		metrics.NotifyEmailsTotal.WithLabelValues("error").Inc()
		return
	}
	if len(entries) == 0 {
		log.Printf("daily digest: no schedules for %s, nothing to send", weekday)
		return
	}

	msg := d.Compose(today, entries)
	if err := d.email.Send(ctx, msg); err != nil {
		log.Printf("daily digest: %v", err)
		metrics.NotifyEmailsTotal.WithLabelValues("error").Inc()
		return
	}

	log.Printf("daily digest: sent %d schedule entries to %s", len(entries), d.to)
	metrics.NotifyEmailsTotal.WithLabelValues("sent").Inc()
}

// Compose renders the plain-text digest for the given day.
func (d *DailyDigest) Compose(date time.Time, entries []schedule.Schedule) Message {
	var b strings.Builder
	b.WriteString("Here's your schedule for today:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\n", strings.ToUpper(e.Subject))
		fmt.Fprintf(&b, "Time: %s - %s\n", e.StartTime, e.EndTime)
		fmt.Fprintf(&b, "Class: %s %s\n\n", e.Class, e.Section)
	}

	return Message{
		To:      d.to,
		Subject: fmt.Sprintf("Today's Class Schedule - %s", date.Format("January 2, 2006")),
		Body:    strings.TrimRight(b.String(), "\n") + "\n",
	}
}
