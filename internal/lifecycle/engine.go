package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine validates and applies application lifecycle operations.
// It is transport-agnostic: used by the HTTP handler and the reminder sweep.
// The engine trusts the caller-resolved role and actor id and performs only
// ownership checks, not authentication.
type Engine struct {
	store   Store
	emitter Emitter
}

// NewEngine returns a configured Engine.
func NewEngine(store Store, emitter Emitter) *Engine {
	return &Engine{store: store, emitter: emitter}
}

// SubmitRequest carries the applicant's inputs at submission time.
// Empty optional fields mean "absent".
type SubmitRequest struct {
	JobID             string
	ApplicantID       string
	EmployerID        string
	CoverLetterText   string
	CoverLetterFileID string
	ResumeFileID      string
}

// Submit creates a new application at pending for the applicant actor.
// The applied date is set here, once, and never changes afterward.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*Application, error) {
	if req.JobID == "" || req.ApplicantID == "" || req.EmployerID == "" {
		return nil, &ValidationError{Msg: "jobId, applicantId and employerId are required"}
	}
	if req.CoverLetterText != "" && req.CoverLetterFileID != "" {
		return nil, &ValidationError{Msg: "coverLetterText and coverLetterFileId are mutually exclusive"}
	}

	now := time.Now().UTC()
	app := &Application{
		ID:                uuid.NewString(),
		JobID:             req.JobID,
		ApplicantID:       req.ApplicantID,
		EmployerID:        req.EmployerID,
		Status:            StatusPending,
		AppliedAt:         now,
		CoverLetterText:   optional(req.CoverLetterText),
		CoverLetterFileID: optional(req.CoverLetterFileID),
		ResumeFileID:      optional(req.ResumeFileID),
		// The interview micro-state starts at unscheduled; it only moves
		// once the employer schedules.
		Interview: &Interview{Status: InterviewUnscheduled},
	}
	return e.store.Create(ctx, app)
}

// Get returns a single application.
func (e *Engine) Get(ctx context.Context, id string) (*Application, error) {
	return e.store.Get(ctx, id)
}

// List returns applications matching the filter.
func (e *Engine) List(ctx context.Context, f Filter) ([]Application, error) {
	return e.store.List(ctx, f)
}

// Counts returns the per-status projection for the given scope.
func (e *Engine) Counts(ctx context.Context, f Filter) (map[Status]int, error) {
	return e.store.StatusCounts(ctx, f)
}

// ApplyTransition moves an application to requested on behalf of the given
// actor. Checks run in order: existence, frozen, ownership, state machine.
// The write is compare-and-swap on the status read here, so a concurrent
// transition makes this one fail with ErrStaleStatus instead of losing an
// update. On success the counterpart actor is notified.
func (e *Engine) ApplyTransition(ctx context.Context, appID string, requested Status, role Role, actorID string) (*Application, error) {
	app, err := e.store.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Frozen() {
		return nil, ErrFrozen
	}
	if !ownedBy(app, role, actorID) {
		return nil, ErrForbidden
	}
	if !CanTransition(app.Status, requested, role) {
		return nil, &TransitionError{From: app.Status, To: requested}
	}

	updated, err := e.store.CompareAndSetStatus(ctx, appID, app.Status, requested)
	if err != nil {
		return nil, err
	}

	recipient := updated.ApplicantID
	if role == RoleApplicant {
		recipient = updated.EmployerID
	}
	e.emit(ctx, Intent{
		Kind:          IntentStatusChanged,
		ApplicationID: updated.ID,
		RecipientID:   recipient,
		Payload: map[string]string{
			"from": string(app.Status),
			"to":   string(updated.Status),
		},
	})
	return updated, nil
}

// ApplyBulkTransition applies the transition independently per id for the
// employer actor. Best-effort batch, not a transaction: one id's failure
// never aborts the others, and each outcome is reported per id.
func (e *Engine) ApplyBulkTransition(ctx context.Context, appIDs []string, requested Status, employerID string) *BulkResult {
	res := &BulkResult{
		Applied: make([]string, 0, len(appIDs)),
		Failed:  make(map[string]error),
	}
	for _, id := range appIDs {
		if _, err := e.ApplyTransition(ctx, id, requested, RoleEmployer, employerID); err != nil {
			res.Failed[id] = err
		} else {
			res.Applied = append(res.Applied, id)
		}
	}
	return res
}

// Withdraw is the transition to withdrawn for the owning applicant.
// An already-withdrawn application reports ErrForbidden ("already done"),
// while hired/rejected report a TransitionError ("never allowed") — the two
// map to different caller-facing messages. A withdrawal that loses a race
// against a concurrent one is re-read and classified the same way, so a
// retried withdrawal still sees "already done" rather than a stale-state
// error.
func (e *Engine) Withdraw(ctx context.Context, appID, applicantID string) (*Application, error) {
	app, err := e.store.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Frozen() {
		return nil, ErrFrozen
	}
	if app.ApplicantID != applicantID {
		return nil, ErrForbidden
	}
	if wErr := withdrawBlocked(app.Status); wErr != nil {
		return nil, wErr
	}

	updated, err := e.store.CompareAndSetStatus(ctx, appID, app.Status, StatusWithdrawn)
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			if current, gerr := e.store.Get(ctx, appID); gerr == nil {
				if wErr := withdrawBlocked(current.Status); wErr != nil {
					return nil, wErr
				}
			}
		}
		return nil, err
	}

	e.emit(ctx, Intent{
		Kind:          IntentStatusChanged,
		ApplicationID: updated.ID,
		RecipientID:   updated.EmployerID,
		Payload: map[string]string{
			"from": string(app.Status),
			"to":   string(updated.Status),
		},
	})
	return updated, nil
}

// withdrawBlocked classifies a status that rules out withdrawal.
func withdrawBlocked(s Status) error {
	switch s {
	case StatusWithdrawn:
		return ErrForbidden
	case StatusHired, StatusRejected:
		return &TransitionError{From: s, To: StatusWithdrawn}
	}
	return nil
}

// ScheduleInterview sets the interview sub-state to scheduled for the owning
// employer. It does not touch the application's top-level status — the two
// are independently driven. The applicant is notified on success.
func (e *Engine) ScheduleInterview(ctx context.Context, appID, employerID string, scheduledAt time.Time, location, meetingLink, notes string) (*Application, error) {
	if scheduledAt.IsZero() {
		return nil, &ValidationError{Msg: "scheduledAt is required"}
	}
	if _, err := e.employerMutable(ctx, appID, employerID); err != nil {
		return nil, err
	}

	updated, err := e.store.SetInterview(ctx, appID, employerID, Interview{
		Status:      InterviewScheduled,
		ScheduledAt: scheduledAt.UTC(),
		Location:    optional(location),
		MeetingLink: optional(meetingLink),
		Notes:       optional(notes),
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, Intent{
		Kind:          IntentInterviewScheduled,
		ApplicationID: updated.ID,
		RecipientID:   updated.ApplicantID,
		Payload: map[string]string{
			"scheduledAt": updated.Interview.ScheduledAt.Format(time.RFC3339),
		},
	})
	return updated, nil
}

// CancelInterview moves an existing scheduled interview to cancelled.
func (e *Engine) CancelInterview(ctx context.Context, appID, employerID string) (*Application, error) {
	app, err := e.employerMutable(ctx, appID, employerID)
	if err != nil {
		return nil, err
	}
	if app.Interview == nil || app.Interview.Status != InterviewScheduled {
		return nil, &ValidationError{Msg: "no scheduled interview to cancel"}
	}

	cancelled := *app.Interview
	cancelled.Status = InterviewCancelled
	updated, err := e.store.SetInterview(ctx, appID, employerID, cancelled)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, Intent{
		Kind:          IntentInterviewCancelled,
		ApplicationID: updated.ID,
		RecipientID:   updated.ApplicantID,
	})
	return updated, nil
}

// ProvideFeedback overwrites the application's feedback record for the
// owning employer. Last write wins; no history is kept. The applicant is
// notified on success.
func (e *Engine) ProvideFeedback(ctx context.Context, appID, employerID, message, category string) (*Application, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Msg: "feedback message must not be empty"}
	}
	if _, err := e.employerMutable(ctx, appID, employerID); err != nil {
		return nil, err
	}

	updated, err := e.store.SetFeedback(ctx, appID, employerID, Feedback{
		Message:  message,
		Category: category,
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, Intent{
		Kind:          IntentFeedbackReceived,
		ApplicationID: updated.ID,
		RecipientID:   updated.ApplicantID,
	})
	return updated, nil
}

// EmitReminder publishes an interview_reminder intent to the applicant.
// Used by the reminder sweep; dedup happens in the caller.
func (e *Engine) EmitReminder(ctx context.Context, app *Application) {
	if app.Interview == nil {
		return
	}
	e.emit(ctx, Intent{
		Kind:          IntentInterviewReminder,
		ApplicationID: app.ID,
		RecipientID:   app.ApplicantID,
		Payload: map[string]string{
			"scheduledAt": app.Interview.ScheduledAt.Format(time.RFC3339),
		},
	})
}

// ownedBy reports whether actorID owns the application in the given role:
// applicants own their own submissions, employers the applications against
// their jobs. Unknown roles own nothing.
func ownedBy(app *Application, role Role, actorID string) bool {
	switch role {
	case RoleApplicant:
		return app.ApplicantID == actorID
	case RoleEmployer:
		return app.EmployerID == actorID
	}
	return false
}

// employerMutable loads the application and verifies it still accepts
// employer-side mutations: present, non-frozen, owned by employerID and in
// a non-terminal status.
func (e *Engine) employerMutable(ctx context.Context, appID, employerID string) (*Application, error) {
	app, err := e.store.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Frozen() {
		return nil, ErrFrozen
	}
	if app.EmployerID != employerID {
		return nil, ErrForbidden
	}
	if IsTerminal(app.Status) {
		return nil, &TransitionError{
			From: app.Status,
			Msg:  fmt.Sprintf("application is already %s", app.Status),
		}
	}
	return app, nil
}

// emit hands off a notification intent fire-and-forget. Delivery failures
// are logged and never fail the operation that produced the intent.
func (e *Engine) emit(ctx context.Context, intent Intent) {
	if err := e.emitter.Emit(ctx, intent); err != nil {
		slog.Warn("emit notification intent failed",
			"kind", intent.Kind, "applicationId", intent.ApplicationID, "err", err)
	}
}

// optional maps an empty string to a nil pointer.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
