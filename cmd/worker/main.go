package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"rollcall/internal/admin"
	"rollcall/internal/config"
	"rollcall/internal/jobs"
	"rollcall/internal/store"
)

// Worker runs scheduled maintenance against the shared database.
func main() {
	cfg := config.Load()
	if cfg.StoreBackend == "memory" {
		log.Fatal("worker needs STORE_BACKEND=postgres; the memory store lives inside the api process")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	admins := admin.NewService(admin.NewRepository(db.Client), nil)

	c := cron.New()
	if _, err := jobs.ScheduleSessionPurge(c, cfg.PurgeSchedule, admins); err != nil {
		log.Fatalf("invalid PURGE_SCHEDULE %q: %v", cfg.PurgeSchedule, err)
	}
	c.Start()
	log.Printf("worker started, purging sessions on %q", cfg.PurgeSchedule)

	// one pass at startup so a long-stopped worker catches up immediately
	jobs.PurgeSessions(ctx, admins)

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("worker stopped")
}
