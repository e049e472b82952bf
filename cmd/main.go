// jobagency-lifecycle-service
//
// Application lifecycle engine for the job marketplace.
// Exposes a REST API used by the Gateway to implement:
//   - submit / list / counts            — application queries and creation
//   - transition / bulk-transition      — role-gated status machine moves
//   - withdraw                          — applicant-side resolution
//   - interview / cancel-interview      — employer interview scheduling
//   - feedback                          — employer feedback (last write wins)
//
// Every successful mutation publishes a notification intent to Redis for
// the notification service to deliver. A cron sweep additionally emits
// reminders for interviews coming up within the look-ahead window.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobagency/lifecycle-service/internal/config"
	"jobagency/lifecycle-service/internal/db"
	"jobagency/lifecycle-service/internal/lifecycle"
	"jobagency/lifecycle-service/internal/reminder"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[lifecycle-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[lifecycle-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[lifecycle-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[lifecycle-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[lifecycle-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[lifecycle-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[lifecycle-service] Redis connected ✓")

	// ── Engine wiring ────────────────────────────────────────────────────────
	store := lifecycle.NewPostgresStore(pool)
	emitter := lifecycle.NewRedisEmitter(rdb)
	engine := lifecycle.NewEngine(store, emitter)

	// ── Interview reminder sweep ─────────────────────────────────────────────
	sweeper := reminder.New(store, engine, rdb,
		cfg.ReminderIntervalMinutes,
		time.Duration(cfg.ReminderLookaheadHours)*time.Hour)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("[lifecycle-service] Reminder sweep: %v", err)
	}
	defer sweeper.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := lifecycle.NewHandler(engine)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[lifecycle-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[lifecycle-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[lifecycle-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[lifecycle-service] Shutdown error: %v", err)
	}
	log.Println("[lifecycle-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "lifecycle-service",
		"version": version,
	})
}
