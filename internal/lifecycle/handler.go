// HTTP handlers for the lifecycle service.
//
// All routes expect x-user-id and x-user-role headers forwarded by the
// Gateway, which has already authenticated the caller and resolved its role.
//
// Routes:
//
//	POST /applications                       → submit application (applicant)
//	GET  /applications                       → list caller's applications
//	GET  /applications/counts                → per-status counts
//	POST /applications/bulk-transition       → bulk status move (employer)
//	POST /applications/{id}/transition       → single status move
//	POST /applications/{id}/withdraw         → applicant withdrawal
//	POST /applications/{id}/interview        → schedule interview (employer)
//	POST /applications/{id}/cancel-interview → cancel interview (employer)
//	POST /applications/{id}/feedback         → write feedback (employer)
package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Handler holds shared dependencies.
type Handler struct {
	engine *Engine
}

// NewHandler returns a configured Handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes mounts all lifecycle-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/applications", h.handleApplications)
	mux.HandleFunc("/applications/", h.handleApplicationAction)
}

// actor is the caller identity forwarded by the Gateway.
type actor struct {
	ID   string
	Role Role
}

// callerActor extracts and validates the forwarded identity headers.
func callerActor(r *http.Request) (actor, error) {
	id := r.Header.Get("x-user-id")
	if id == "" {
		return actor{}, fmt.Errorf("missing x-user-id header")
	}
	role, err := ParseRole(r.Header.Get("x-user-role"))
	if err != nil {
		return actor{}, fmt.Errorf("missing or invalid x-user-role header")
	}
	return actor{ID: id, Role: role}, nil
}

// scope limits queries to the caller's own applications.
func (a actor) scope() Filter {
	if a.Role == RoleEmployer {
		return Filter{EmployerID: a.ID}
	}
	return Filter{ApplicantID: a.ID}
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleApplications handles GET/POST /applications
func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listApplications(w, r)
	case http.MethodPost:
		h.submitApplication(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleApplicationAction handles /applications/counts,
// /applications/bulk-transition and POST /applications/{id}/{action}.
func (h *Handler) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	if len(parts) == 2 {
		switch parts[1] {
		case "counts":
			if r.Method != http.MethodGet {
				jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.statusCounts(w, r)
		case "bulk-transition":
			if r.Method != http.MethodPost {
				jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.bulkTransition(w, r)
		default:
			jsonError(w, "invalid path", http.StatusNotFound)
		}
		return
	}

	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	appID := parts[1]
	action := parts[2]

	switch action {
	case "transition":
		h.applyTransition(w, r, appID)
	case "withdraw":
		h.withdraw(w, r, appID)
	case "interview":
		h.scheduleInterview(w, r, appID)
	case "cancel-interview":
		h.cancelInterview(w, r, appID)
	case "feedback":
		h.provideFeedback(w, r, appID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleApplicant {
		jsonError(w, "only applicants may submit applications", http.StatusForbidden)
		return
	}

	var body struct {
		JobID             string `json:"jobId"`
		EmployerID        string `json:"employerId"`
		CoverLetterText   string `json:"coverLetterText"`
		CoverLetterFileID string `json:"coverLetterFileId"`
		ResumeFileID      string `json:"resumeFileId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	app, err := h.engine.Submit(r.Context(), SubmitRequest{
		JobID:             body.JobID,
		ApplicantID:       caller.ID,
		EmployerID:        body.EmployerID,
		CoverLetterText:   body.CoverLetterText,
		CoverLetterFileID: body.CoverLetterFileID,
		ResumeFileID:      body.ResumeFileID,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	f := caller.scope()
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := ParseStatus(s)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.Status = status
	}
	if jobID := r.URL.Query().Get("jobId"); jobID != "" {
		f.JobID = jobID
	}

	apps, err := h.engine.List(r.Context(), f)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) statusCounts(w http.ResponseWriter, r *http.Request) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	counts, err := h.engine.Counts(r.Context(), caller.scope())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, counts)
}

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, appID string) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}
	newStatus, err := ParseStatus(body.NewStatus)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.engine.ApplyTransition(r.Context(), appID, newStatus, caller.Role, caller.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) bulkTransition(w http.ResponseWriter, r *http.Request) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleEmployer {
		jsonError(w, "bulk transitions are employer-only", http.StatusForbidden)
		return
	}

	var body struct {
		ApplicationIDs []string `json:"applicationIds"`
		NewStatus      string   `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.ApplicationIDs) == 0 || body.NewStatus == "" {
		jsonError(w, "body must contain applicationIds and newStatus", http.StatusBadRequest)
		return
	}
	newStatus, err := ParseStatus(body.NewStatus)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := h.engine.ApplyBulkTransition(r.Context(), body.ApplicationIDs, newStatus, caller.ID)

	failed := make(map[string]string, len(res.Failed))
	for id, ferr := range res.Failed {
		failed[id] = ferr.Error()
	}
	jsonOK(w, map[string]any{
		"applied": res.Applied,
		"failed":  failed,
	})
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request, appID string) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleApplicant {
		jsonError(w, "only the applicant may withdraw", http.StatusForbidden)
		return
	}

	app, err := h.engine.Withdraw(r.Context(), appID, caller.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) scheduleInterview(w http.ResponseWriter, r *http.Request, appID string) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleEmployer {
		jsonError(w, "only the employer may schedule interviews", http.StatusForbidden)
		return
	}

	var body struct {
		ScheduledAt string `json:"scheduledAt"`
		Location    string `json:"location"`
		MeetingLink string `json:"meetingLink"`
		Notes       string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ScheduledAt == "" {
		jsonError(w, "body must contain scheduledAt", http.StatusBadRequest)
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, body.ScheduledAt)
	if err != nil {
		jsonError(w, "scheduledAt must be an RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	app, err := h.engine.ScheduleInterview(r.Context(), appID, caller.ID,
		scheduledAt, body.Location, body.MeetingLink, body.Notes)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) cancelInterview(w http.ResponseWriter, r *http.Request, appID string) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleEmployer {
		jsonError(w, "only the employer may cancel interviews", http.StatusForbidden)
		return
	}

	app, err := h.engine.CancelInterview(r.Context(), appID, caller.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) provideFeedback(w http.ResponseWriter, r *http.Request, appID string) {
	caller, err := callerActor(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if caller.Role != RoleEmployer {
		jsonError(w, "only the employer may provide feedback", http.StatusForbidden)
		return
	}

	var body struct {
		Message  string `json:"message"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	app, err := h.engine.ProvideFeedback(r.Context(), appID, caller.ID, body.Message, body.Category)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// writeEngineError maps engine errors to HTTP responses. Callers must be
// able to distinguish "doesn't exist" from "not allowed" from "doesn't make
// sense right now"; frozen applications are surfaced as belonging to a
// removed employer rather than as a generic failure.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrFrozen):
		jsonError(w, "this application's employer is no longer available", http.StatusConflict)
	case errors.Is(err, ErrStaleStatus):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		var te *TransitionError
		if errors.As(err, &te) {
			jsonError(w, te.Error(), http.StatusConflict)
			return
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			jsonError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		log.Printf("[lifecycle] internal error: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
