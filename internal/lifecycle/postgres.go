package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed Store over the applications table.
// Status values mirror the application_status enum; interview statuses the
// interview_status enum. job_id is nullable — a NULL reference marks a
// frozen application whose job posting was removed.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// selectCols is the column list every query scans, aliased on a.
const selectCols = `
	a.id::text, COALESCE(a.job_id::text, ''), a.applicant_id::text, a.employer_id::text,
	a.status, a.applied_at,
	a.cover_letter_text, a.cover_letter_file_id::text, a.resume_file_id::text,
	a.interview_status, a.interview_scheduled_at, a.interview_location,
	a.interview_meeting_link, a.interview_notes,
	a.feedback_message, a.feedback_category, a.feedback_provided_at,
	a.created_at, a.updated_at`

// scanApplication scans one row in selectCols order and folds the flat
// nullable columns back into the embedded Interview and Feedback records.
func scanApplication(row pgx.Row) (*Application, error) {
	var (
		a        Application
		status   string
		ivStatus *string
		ivAt     *time.Time
		ivLoc    *string
		ivLink   *string
		ivNotes  *string
		fbMsg    *string
		fbCat    *string
		fbAt     *time.Time
	)
	if err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantID, &a.EmployerID,
		&status, &a.AppliedAt,
		&a.CoverLetterText, &a.CoverLetterFileID, &a.ResumeFileID,
		&ivStatus, &ivAt, &ivLoc,
		&ivLink, &ivNotes,
		&fbMsg, &fbCat, &fbAt,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = Status(status)
	if ivStatus != nil {
		iv := &Interview{
			Status:      InterviewStatus(*ivStatus),
			Location:    ivLoc,
			MeetingLink: ivLink,
			Notes:       ivNotes,
		}
		if ivAt != nil {
			iv.ScheduledAt = *ivAt
		}
		a.Interview = iv
	}
	if fbMsg != nil {
		fb := &Feedback{Message: *fbMsg}
		if fbCat != nil {
			fb.Category = *fbCat
		}
		if fbAt != nil {
			fb.ProvidedAt = *fbAt
		}
		a.Feedback = fb
	}
	return &a, nil
}

// filterClauses builds WHERE fragments for a Filter. Zero fields add nothing.
func filterClauses(f Filter) (clauses []string, args []any) {
	add := func(expr string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}
	if f.ApplicantID != "" {
		add("a.applicant_id = $%d", f.ApplicantID)
	}
	if f.EmployerID != "" {
		add("a.employer_id = $%d", f.EmployerID)
	}
	if f.JobID != "" {
		add("a.job_id = $%d", f.JobID)
	}
	if f.Status != "" {
		add("a.status = $%d::application_status", string(f.Status))
	}
	return clauses, args
}

// Get returns a single application by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx,
		`SELECT `+selectCols+` FROM applications a WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// List returns applications matching the filter, newest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Application, error) {
	q := `SELECT ` + selectCols + ` FROM applications a`
	clauses, args := filterClauses(f)
	if len(clauses) > 0 {
		q += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	q += ` ORDER BY a.updated_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications query: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications scan: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// Create inserts a new application. The interview micro-state is persisted
// from the start (unscheduled unless the caller says otherwise).
func (s *PostgresStore) Create(ctx context.Context, app *Application) (*Application, error) {
	ivStatus := string(InterviewUnscheduled)
	if app.Interview != nil {
		ivStatus = string(app.Interview.Status)
	}
	created, err := scanApplication(s.pool.QueryRow(ctx,
		`WITH ins AS (
		   INSERT INTO applications
		     (id, job_id, applicant_id, employer_id, status, applied_at,
		      cover_letter_text, cover_letter_file_id, resume_file_id,
		      interview_status)
		   VALUES ($1, $2, $3, $4, $5::application_status, $6, $7, $8, $9,
		           $10::interview_status)
		   RETURNING *
		 )
		 SELECT `+selectCols+` FROM ins a`,
		app.ID, app.JobID, app.ApplicantID, app.EmployerID,
		string(app.Status), app.AppliedAt,
		app.CoverLetterText, app.CoverLetterFileID, app.ResumeFileID,
		ivStatus,
	))
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return created, nil
}

// CompareAndSetStatus moves id from expected to next atomically. A stored
// status that no longer matches expected touches zero rows and reports
// ErrStaleStatus — this is what serializes concurrent transitions.
func (s *PostgresStore) CompareAndSetStatus(ctx context.Context, id string, expected, next Status) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx,
		`WITH upd AS (
		   UPDATE applications
		   SET status     = $1::application_status,
		       updated_at = NOW()
		   WHERE id = $2 AND status = $3::application_status
		   RETURNING *
		 )
		 SELECT `+selectCols+` FROM upd a`,
		string(next), id, string(expected),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("compare-and-set status: %w", err)
	}
	return app, nil
}

// SetInterview writes the embedded interview record. The WHERE clause
// re-checks ownership, a live job and a non-terminal status so the write
// stays valid even if the application changed since the engine's read.
func (s *PostgresStore) SetInterview(ctx context.Context, id, employerID string, iv Interview) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx,
		`WITH upd AS (
		   UPDATE applications
		   SET interview_status       = $1::interview_status,
		       interview_scheduled_at = $2,
		       interview_location     = $3,
		       interview_meeting_link = $4,
		       interview_notes        = $5,
		       updated_at             = NOW()
		   WHERE id = $6 AND employer_id = $7
		     AND job_id IS NOT NULL
		     AND status NOT IN ('rejected', 'hired', 'withdrawn')
		   RETURNING *
		 )
		 SELECT `+selectCols+` FROM upd a`,
		string(iv.Status), iv.ScheduledAt, iv.Location, iv.MeetingLink, iv.Notes,
		id, employerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("set interview: %w", err)
	}
	return app, nil
}

// SetFeedback overwrites the embedded feedback record in place. Last write
// wins; no history is kept.
func (s *PostgresStore) SetFeedback(ctx context.Context, id, employerID string, fb Feedback) (*Application, error) {
	app, err := scanApplication(s.pool.QueryRow(ctx,
		`WITH upd AS (
		   UPDATE applications
		   SET feedback_message     = $1,
		       feedback_category    = $2,
		       feedback_provided_at = NOW(),
		       updated_at           = NOW()
		   WHERE id = $3 AND employer_id = $4
		     AND job_id IS NOT NULL
		     AND status NOT IN ('rejected', 'hired', 'withdrawn')
		   RETURNING *
		 )
		 SELECT `+selectCols+` FROM upd a`,
		fb.Message, fb.Category, id, employerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("set feedback: %w", err)
	}
	return app, nil
}

// StatusCounts recomputes the per-status projection for the given scope.
func (s *PostgresStore) StatusCounts(ctx context.Context, f Filter) (map[Status]int, error) {
	q := `SELECT a.status, COUNT(*) FROM applications a`
	clauses, args := filterClauses(f)
	if len(clauses) > 0 {
		q += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	q += ` GROUP BY a.status`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("status counts query: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("status counts scan: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// UpcomingInterviews returns applications whose interview is scheduled
// within the next `within` window, soonest first.
func (s *PostgresStore) UpcomingInterviews(ctx context.Context, within time.Duration) ([]Application, error) {
	deadline := time.Now().UTC().Add(within)
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectCols+`
		 FROM applications a
		 WHERE a.interview_status = 'scheduled'
		   AND a.interview_scheduled_at > NOW()
		   AND a.interview_scheduled_at <= $1
		 ORDER BY a.interview_scheduled_at`,
		deadline,
	)
	if err != nil {
		return nil, fmt.Errorf("upcoming interviews query: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("upcoming interviews scan: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}
