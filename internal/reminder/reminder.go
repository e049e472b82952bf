// Package reminder wires up the cron job that periodically emits
// interview_reminder intents for interviews coming up within the
// look-ahead window.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"jobagency/lifecycle-service/internal/lifecycle"
)

// Sweeper wraps robfig/cron and manages the reminder loop. It only reads
// applications and emits intents; it never mutates lifecycle state.
type Sweeper struct {
	cron      *cron.Cron
	store     lifecycle.Store
	engine    *lifecycle.Engine
	rdb       *redis.Client
	lookahead time.Duration
	spec      string // cron spec, e.g. "@every 15m"
}

// New creates a Sweeper that fires every intervalMinutes minutes and looks
// ahead over the given window.
func New(store lifecycle.Store, engine *lifecycle.Engine, rdb *redis.Client, intervalMinutes int, lookahead time.Duration) *Sweeper {
	return &Sweeper{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		store:     store,
		engine:    engine,
		rdb:       rdb,
		lookahead: lookahead,
		spec:      fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so reminders are not delayed by the first tick.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[reminder] Cron started — spec: %s, lookahead: %s", s.spec, s.lookahead)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Sweeper) Stop() {
	s.cron.Stop()
	log.Println("[reminder] Cron stopped")
}

// runSweep emits one reminder per upcoming interview, deduplicated across
// ticks via a redis SETNX key per application and scheduled time.
func (s *Sweeper) runSweep(ctx context.Context) {
	apps, err := s.store.UpcomingInterviews(ctx, s.lookahead)
	if err != nil {
		log.Printf("[reminder] UpcomingInterviews error: %v", err)
		return
	}
	if len(apps) == 0 {
		return
	}

	var emitted int
	for i := range apps {
		app := &apps[i]
		key := fmt.Sprintf("interview-reminder:%s:%d", app.ID, app.Interview.ScheduledAt.Unix())
		// Key expires after the interview has passed; rescheduling produces
		// a new key and therefore a new reminder.
		fresh, err := s.rdb.SetNX(ctx, key, 1, s.lookahead*2).Result()
		if err != nil {
			log.Printf("[reminder] dedupe SETNX error for application %s: %v — continuing", app.ID, err)
			continue
		}
		if !fresh {
			continue
		}
		s.engine.EmitReminder(ctx, app)
		emitted++
	}

	if emitted > 0 {
		log.Printf("[reminder] Sweep done — upcoming=%d emitted=%d", len(apps), emitted)
	}
}
