package main

import (
	"log"

	"classtrack/internal/config"
	"classtrack/internal/notify"
	"classtrack/internal/schedule"
	"classtrack/internal/store"
)

// Notifier sends today's schedule digest once and exits. The API process runs
// the same job on a cron timer; this binary exists for manual or external
// (e.g. systemd timer) triggering.
func main() {
	cfg := config.Load()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	schedules := schedule.NewService(schedule.NewRepository(db.Client))

	var email notify.EmailService
	if cfg.SendgridAPIKey != "" {
		email = notify.NewSendgridService(cfg.SendgridAPIKey, cfg.EmailFrom)
	} else {
		email = notify.NewConsoleService()
	}

	notify.NewDailyDigest(schedules, email, cfg.NotifyEmail).Run()
}
