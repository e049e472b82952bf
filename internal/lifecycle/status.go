// Package lifecycle implements the application lifecycle engine: the status
// state machine a job application moves through from submission to resolution,
// the role-gated operations that drive it, and the notification intents those
// operations emit.
//
// Valid status graph (base edges):
//
//	pending ──► reviewed ──► shortlisted ──► interview ──► hired
//	    │           │              │              │
//	    ├───────────┴──────────────┴──────────────┴──────► rejected
//	    └──────────────────────────────────────────────────► withdrawn
//
// Employers may additionally skip forward along the pipeline (e.g.
// pending → rejected, reviewed → hired). The applicant's only legal move is
// to withdrawn. rejected, hired and withdrawn are terminal states.
package lifecycle

import "fmt"

// Status values mirror the application_status enum in PostgreSQL.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusInterview   Status = "interview"
	StatusRejected    Status = "rejected"
	StatusHired       Status = "hired"
	StatusWithdrawn   Status = "withdrawn"
)

// Role is the capacity under which an operation is invoked. Role resolution
// happens upstream (gateway auth); the engine only checks ownership.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleEmployer  Role = "employer"
)

// pipelineRank orders the non-terminal stages. Employer moves must go
// strictly forward along this ordering.
var pipelineRank = map[Status]int{
	StatusPending:     0,
	StatusReviewed:    1,
	StatusShortlisted: 2,
	StatusInterview:   3,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusInterview,
		StatusRejected, StatusHired, StatusWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// ParseRole converts a raw string to a Role, returning an error for unknown
// values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleApplicant, RoleEmployer:
		return r, nil
	}
	return "", fmt.Errorf("unknown actor role %q", s)
}

// IsTerminal returns true when status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return s == StatusRejected || s == StatusHired || s == StatusWithdrawn
}

// CanTransition returns true when moving from → to is permitted for the
// given actor role.
//
// Self-transitions are never permitted: a request to set the current status
// again is reported as invalid, not silently accepted.
func CanTransition(from, to Status, role Role) bool {
	if IsTerminal(from) {
		return false
	}
	if from == to {
		return false
	}
	switch role {
	case RoleApplicant:
		return to == StatusWithdrawn
	case RoleEmployer:
		if to == StatusRejected || to == StatusHired {
			return true
		}
		toRank, ok := pipelineRank[to]
		if !ok {
			return false // withdrawn is applicant-only
		}
		return toRank > pipelineRank[from]
	}
	return false
}
