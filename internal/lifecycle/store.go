package lifecycle

import (
	"context"
	"time"
)

// Store owns durable Application records. The engine never caches them
// across calls: every operation re-reads current state before validating
// and writing.
//
// Per-record status writes are compare-and-swap on the current status so
// that two concurrent transitions on the same application serialize — the
// second sees the first's result or fails with ErrStaleStatus.
type Store interface {
	Get(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, f Filter) ([]Application, error)
	Create(ctx context.Context, app *Application) (*Application, error)

	// CompareAndSetStatus moves id from expected to next, returning
	// ErrStaleStatus when the stored status no longer matches expected.
	CompareAndSetStatus(ctx context.Context, id string, expected, next Status) (*Application, error)

	// SetInterview and SetFeedback write the embedded records. Both are
	// guarded in the store on employer ownership, a live job reference and
	// a non-terminal status, so the check-then-write is atomic; a guard
	// miss after the engine's own read surfaces as ErrStaleStatus.
	SetInterview(ctx context.Context, id, employerID string, iv Interview) (*Application, error)
	SetFeedback(ctx context.Context, id, employerID string, fb Feedback) (*Application, error)

	// StatusCounts is a read-time projection per status for the given
	// scope. It is recomputed on every call, never maintained as a
	// running total.
	StatusCounts(ctx context.Context, f Filter) (map[Status]int, error)

	// UpcomingInterviews returns applications whose interview is scheduled
	// within the next `within` window.
	UpcomingInterviews(ctx context.Context, within time.Duration) ([]Application, error)
}
