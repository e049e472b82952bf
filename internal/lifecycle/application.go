package lifecycle

import (
	"fmt"
	"time"
)

// InterviewStatus is the micro-state of the interview sub-workflow. It is
// driven only by the employer and is independent of the application's
// top-level status.
type InterviewStatus string

const (
	InterviewUnscheduled InterviewStatus = "unscheduled"
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewCancelled   InterviewStatus = "cancelled"
)

// Application is the lifecycle's root entity — one candidate's submission
// against one job posting. It is the JSON shape returned to the Gateway.
type Application struct {
	ID string `json:"id"`
	// JobID is empty once the referenced job has been removed. Such an
	// application is frozen: a historical record that can no longer change.
	JobID       string `json:"jobId"`
	ApplicantID string `json:"applicantId"`
	// EmployerID is derived from the job at submission time and retained
	// even after the job itself is removed.
	EmployerID string `json:"employerId"`
	Status     Status `json:"status"`

	AppliedAt time.Time `json:"appliedAt"`

	// CoverLetterText and CoverLetterFileID are mutually exclusive.
	CoverLetterText   *string `json:"coverLetterText"`
	CoverLetterFileID *string `json:"coverLetterFileId"`
	ResumeFileID      *string `json:"resumeFileId"`

	Interview *Interview `json:"interview"`
	Feedback  *Feedback  `json:"feedback"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Frozen reports whether the referenced job no longer exists (invariant:
// such applications persist but reject every mutation).
func (a *Application) Frozen() bool { return a.JobID == "" }

// Interview is the employer-driven scheduling record embedded in an
// application. ScheduledAt is required once the status is scheduled.
type Interview struct {
	Status      InterviewStatus `json:"status"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	Location    *string         `json:"location"`
	MeetingLink *string         `json:"meetingLink"`
	Notes       *string         `json:"notes"`
}

// Feedback is the employer's free-text annotation. At most one per
// application; a new write replaces the prior one in place.
type Feedback struct {
	Message    string    `json:"message"`
	Category   string    `json:"category"`
	ProvidedAt time.Time `json:"providedAt"`
}

// Filter narrows store queries. Zero-valued fields are ignored.
type Filter struct {
	ApplicantID string
	EmployerID  string
	JobID       string
	Status      Status
}

// BulkResult reports the per-id outcome of a bulk transition. A failure on
// one id never aborts the others.
type BulkResult struct {
	Applied []string
	Failed  map[string]error
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an application is missing.
var ErrNotFound = fmt.Errorf("application not found")

// ErrForbidden is returned when the actor lacks ownership or role for the
// operation, including withdrawing an already-withdrawn application.
var ErrForbidden = fmt.Errorf("operation not permitted for this actor")

// ErrFrozen is returned when the application's job posting no longer exists.
var ErrFrozen = fmt.Errorf("application is frozen: job posting no longer exists")

// ErrStaleStatus is returned when a concurrent writer changed the
// application between read and write. Safe to retry from a fresh read.
var ErrStaleStatus = fmt.Errorf("application changed concurrently")

// TransitionError reports a status move the state machine rejects.
type TransitionError struct {
	From Status
	To   Status
	Msg  string
}

func (e *TransitionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
