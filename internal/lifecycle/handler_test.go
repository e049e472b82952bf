package lifecycle_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobagency/lifecycle-service/internal/lifecycle"
)

func newTestServer(apps ...*lifecycle.Application) *http.ServeMux {
	engine, _, _ := newTestEngine(apps...)
	mux := http.NewServeMux()
	lifecycle.NewHandler(engine).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, userID, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	if role != "" {
		req.Header.Set("x-user-role", role)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_MissingIdentityHeaders(t *testing.T) {
	mux := newTestServer()
	rec := doJSON(t, mux, http.MethodGet, "/applications", "", "", "")
	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Result().StatusCode)
	}
}

func TestHandler_TransitionSuccess(t *testing.T) {
	mux := newTestServer(testApp("a1", lifecycle.StatusPending))
	rec := doJSON(t, mux, http.MethodPost, "/applications/a1/transition",
		employerID, "employer", `{"newStatus":"reviewed"}`)
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d — body %s", rec.Result().StatusCode, rec.Body.String())
	}

	var app lifecycle.Application
	if err := json.NewDecoder(rec.Body).Decode(&app); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if app.Status != lifecycle.StatusReviewed {
		t.Errorf("status = %s, want reviewed", app.Status)
	}
}

func TestHandler_InvalidTransitionConflict(t *testing.T) {
	mux := newTestServer(testApp("a1", lifecycle.StatusHired))
	rec := doJSON(t, mux, http.MethodPost, "/applications/a1/transition",
		employerID, "employer", `{"newStatus":"reviewed"}`)
	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Result().StatusCode)
	}
}

func TestHandler_UnknownStatusBadRequest(t *testing.T) {
	mux := newTestServer(testApp("a1", lifecycle.StatusPending))
	rec := doJSON(t, mux, http.MethodPost, "/applications/a1/transition",
		employerID, "employer", `{"newStatus":"approved"}`)
	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Result().StatusCode)
	}
}

func TestHandler_BulkIsEmployerOnly(t *testing.T) {
	mux := newTestServer(testApp("a1", lifecycle.StatusPending))
	rec := doJSON(t, mux, http.MethodPost, "/applications/bulk-transition",
		applicantID, "applicant", `{"applicationIds":["a1"],"newStatus":"reviewed"}`)
	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Result().StatusCode)
	}
}

func TestHandler_BulkReportsPerIDOutcomes(t *testing.T) {
	mux := newTestServer(
		testApp("a", lifecycle.StatusPending),
		testApp("b", lifecycle.StatusWithdrawn),
	)
	rec := doJSON(t, mux, http.MethodPost, "/applications/bulk-transition",
		employerID, "employer", `{"applicationIds":["a","b"],"newStatus":"reviewed"}`)
	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Result().StatusCode)
	}

	var res struct {
		Applied []string          `json:"applied"`
		Failed  map[string]string `json:"failed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0] != "a" {
		t.Errorf("applied = %v, want [a]", res.Applied)
	}
	if _, ok := res.Failed["b"]; !ok {
		t.Errorf("failed = %v, want an entry for b", res.Failed)
	}
}

func TestHandler_FrozenSurfacesRemovedEmployer(t *testing.T) {
	frozen := testApp("a1", lifecycle.StatusReviewed)
	frozen.JobID = ""
	mux := newTestServer(frozen)

	rec := doJSON(t, mux, http.MethodPost, "/applications/a1/withdraw",
		applicantID, "applicant", `{}`)
	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Result().StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Error("frozen applications must carry an explanatory message")
	}
}

func TestHandler_SubmitRequiresApplicantRole(t *testing.T) {
	mux := newTestServer()
	rec := doJSON(t, mux, http.MethodPost, "/applications",
		employerID, "employer", `{"jobId":"job-1","employerId":"employer-1"}`)
	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Result().StatusCode)
	}
}

func TestHandler_ScheduleInterviewValidatesTimestamp(t *testing.T) {
	mux := newTestServer(testApp("a1", lifecycle.StatusShortlisted))
	rec := doJSON(t, mux, http.MethodPost, "/applications/a1/interview",
		employerID, "employer", `{"scheduledAt":"next tuesday"}`)
	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Result().StatusCode)
	}
}
