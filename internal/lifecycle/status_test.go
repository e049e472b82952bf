package lifecycle_test

import (
	"testing"

	"jobagency/lifecycle-service/internal/lifecycle"
)

var allStatuses = []lifecycle.Status{
	lifecycle.StatusPending,
	lifecycle.StatusReviewed,
	lifecycle.StatusShortlisted,
	lifecycle.StatusInterview,
	lifecycle.StatusRejected,
	lifecycle.StatusHired,
	lifecycle.StatusWithdrawn,
}

var nonTerminals = []lifecycle.Status{
	lifecycle.StatusPending,
	lifecycle.StatusReviewed,
	lifecycle.StatusShortlisted,
	lifecycle.StatusInterview,
}

var terminals = []lifecycle.Status{
	lifecycle.StatusRejected,
	lifecycle.StatusHired,
	lifecycle.StatusWithdrawn,
}

// ── ParseStatus / ParseRole ────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"pending", "reviewed", "shortlisted", "interview", "rejected", "hired", "withdrawn"}
	for _, s := range valid {
		got, err := lifecycle.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := lifecycle.ParseStatus("accepted")
	if err == nil {
		t.Error("ParseStatus(\"accepted\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := lifecycle.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"applicant", "employer"} {
		got, err := lifecycle.ParseRole(s)
		if err != nil {
			t.Errorf("ParseRole(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseRole(%q) = %q, want %q", s, got, s)
		}
	}
	for _, s := range []string{"", "admin", "Employer"} {
		if _, err := lifecycle.ParseRole(s); err == nil {
			t.Errorf("ParseRole(%q) expected error, got nil", s)
		}
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	for _, s := range terminals {
		if !lifecycle.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should return true", s)
		}
	}
	for _, s := range nonTerminals {
		if lifecycle.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should return false", s)
		}
	}
}

// ── CanTransition — declared employer edges ────────────────────────────────

func TestCanTransition_EmployerBaseEdges(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusPending, lifecycle.StatusReviewed},
		{lifecycle.StatusPending, lifecycle.StatusShortlisted},
		{lifecycle.StatusReviewed, lifecycle.StatusShortlisted},
		{lifecycle.StatusReviewed, lifecycle.StatusRejected},
		{lifecycle.StatusShortlisted, lifecycle.StatusInterview},
		{lifecycle.StatusShortlisted, lifecycle.StatusRejected},
		{lifecycle.StatusInterview, lifecycle.StatusHired},
		{lifecycle.StatusInterview, lifecycle.StatusRejected},
	}
	for _, c := range cases {
		if !lifecycle.CanTransition(c.from, c.to, lifecycle.RoleEmployer) {
			t.Errorf("CanTransition(%s → %s, employer) should be true", c.from, c.to)
		}
	}
}

// ── CanTransition — employer forward skips ─────────────────────────────────

func TestCanTransition_EmployerSkipForward(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusPending, lifecycle.StatusInterview}, // skip two stages
		{lifecycle.StatusPending, lifecycle.StatusRejected},  // reject immediately
		{lifecycle.StatusPending, lifecycle.StatusHired},     // hire immediately
		{lifecycle.StatusReviewed, lifecycle.StatusInterview},
		{lifecycle.StatusReviewed, lifecycle.StatusHired},
		{lifecycle.StatusShortlisted, lifecycle.StatusHired},
	}
	for _, c := range cases {
		if !lifecycle.CanTransition(c.from, c.to, lifecycle.RoleEmployer) {
			t.Errorf("CanTransition(%s → %s, employer) should be true (forward skip)", c.from, c.to)
		}
	}
}

// ── CanTransition — backwards movements are forbidden ──────────────────────

func TestCanTransition_EmployerBackwards(t *testing.T) {
	cases := []struct {
		from lifecycle.Status
		to   lifecycle.Status
	}{
		{lifecycle.StatusReviewed, lifecycle.StatusPending},
		{lifecycle.StatusShortlisted, lifecycle.StatusReviewed},
		{lifecycle.StatusInterview, lifecycle.StatusShortlisted},
		{lifecycle.StatusInterview, lifecycle.StatusPending},
	}
	for _, c := range cases {
		if lifecycle.CanTransition(c.from, c.to, lifecycle.RoleEmployer) {
			t.Errorf("CanTransition(%s → %s, employer) should be false (backwards)", c.from, c.to)
		}
	}
}

// ── CanTransition — applicant may only withdraw ────────────────────────────

func TestCanTransition_ApplicantWithdrawOnly(t *testing.T) {
	for _, from := range nonTerminals {
		if !lifecycle.CanTransition(from, lifecycle.StatusWithdrawn, lifecycle.RoleApplicant) {
			t.Errorf("CanTransition(%s → withdrawn, applicant) should be true", from)
		}
		for _, to := range allStatuses {
			if to == lifecycle.StatusWithdrawn {
				continue
			}
			if lifecycle.CanTransition(from, to, lifecycle.RoleApplicant) {
				t.Errorf("CanTransition(%s → %s, applicant) should be false", from, to)
			}
		}
	}
}

func TestCanTransition_EmployerCannotWithdraw(t *testing.T) {
	for _, from := range nonTerminals {
		if lifecycle.CanTransition(from, lifecycle.StatusWithdrawn, lifecycle.RoleEmployer) {
			t.Errorf("CanTransition(%s → withdrawn, employer) should be false", from)
		}
	}
}

// ── CanTransition — terminal states have no outgoing transitions ───────────

func TestCanTransition_FromTerminal(t *testing.T) {
	roles := []lifecycle.Role{lifecycle.RoleApplicant, lifecycle.RoleEmployer}
	for _, from := range terminals {
		for _, to := range allStatuses {
			for _, role := range roles {
				if lifecycle.CanTransition(from, to, role) {
					t.Errorf("CanTransition(%s → %s, %s) should be false (terminal state)", from, to, role)
				}
			}
		}
	}
}

// ── CanTransition — self-transitions are forbidden ─────────────────────────

func TestCanTransition_Self(t *testing.T) {
	roles := []lifecycle.Role{lifecycle.RoleApplicant, lifecycle.RoleEmployer}
	for _, s := range allStatuses {
		for _, role := range roles {
			if lifecycle.CanTransition(s, s, role) {
				t.Errorf("CanTransition(%s → %s, %s) should be false (self)", s, s, role)
			}
		}
	}
}
