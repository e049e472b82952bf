package lifecycle_test

// ── Additional edge-case tests ────────────────────────────────────────────
//
// This file extends status_test.go with cases around parsing strictness and
// the reachability of the two special statuses (pending is only an initial
// state; withdrawn is applicant-only). The core role/transition matrix is
// already covered in status_test.go.

import (
	"testing"

	"jobagency/lifecycle-service/internal/lifecycle"
)

// ParseStatus must be case-sensitive — uppercase variants must not be valid.
func TestParseStatus_CaseSensitive(t *testing.T) {
	uppercase := []string{"PENDING", "Reviewed", "SHORTLISTED", "Interview", "HIRED", "Withdrawn"}
	for _, s := range uppercase {
		_, err := lifecycle.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject non-lowercase value, got nil error", s)
		}
	}
}

// ParseStatus must reject whitespace-padded strings.
func TestParseStatus_WithWhitespace(t *testing.T) {
	padded := []string{" pending", "pending ", " pending "}
	for _, s := range padded {
		_, err := lifecycle.ParseStatus(s)
		if err == nil {
			t.Errorf("ParseStatus(%q) should reject padded value, got nil error", s)
		}
	}
}

// All seven constants must round-trip through ParseStatus without error.
func TestParseStatus_AllConstantsRoundTrip(t *testing.T) {
	for _, s := range allStatuses {
		got, err := lifecycle.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

// pending is the mandatory initial state for any new application.
// Verify it is never reachable from any other state, for either role.
func TestCanTransition_PendingIsNeverReachable(t *testing.T) {
	roles := []lifecycle.Role{lifecycle.RoleApplicant, lifecycle.RoleEmployer}
	for _, from := range allStatuses {
		if from == lifecycle.StatusPending {
			continue
		}
		for _, role := range roles {
			if lifecycle.CanTransition(from, lifecycle.StatusPending, role) {
				t.Errorf(
					"CanTransition(%s → pending, %s) must be false: pending is only an initial state",
					from, role,
				)
			}
		}
	}
}

// An unknown role must never be granted a transition, whatever the edge.
func TestCanTransition_UnknownRole(t *testing.T) {
	for _, from := range nonTerminals {
		for _, to := range allStatuses {
			if lifecycle.CanTransition(from, to, lifecycle.Role("admin")) {
				t.Errorf("CanTransition(%s → %s, admin) must be false for unknown roles", from, to)
			}
		}
	}
}
