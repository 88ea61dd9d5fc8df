package models

import "time"

type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionReviewed   SessionStatus = "reviewed"
	SessionDisputed   SessionStatus = "disputed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Scorable reports whether scores may still be submitted in this status.
func (s SessionStatus) Scorable() bool {
	return s == SessionPending || s == SessionInProgress
}

// Label returns a human readable status.
func (s SessionStatus) Label() string {
	switch s {
	case SessionPending:
		return "Pending"
	case SessionInProgress:
		return "In progress"
	case SessionCompleted:
		return "Completed"
	case SessionReviewed:
		return "Reviewed"
	case SessionDisputed:
		return "Disputed"
	case SessionCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// TemplateSnapshot is the frozen copy of a template a session is scored against.
type TemplateSnapshot struct {
	Template Template    `json:"template"`
	Groups   []Group     `json:"groups"`
	Criteria []Criterion `json:"criteria"`
}

// UserRef is the user summary embedded in sessions when include_users is set.
type UserRef struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type Session struct {
	ID               string            `json:"id"`
	Status           SessionStatus     `json:"status"`
	CoachID          string            `json:"coach_id"`
	AgentID          string            `json:"agent_id"`
	CallID           string            `json:"call_id,omitempty"`
	TemplateID       string            `json:"template_id"`
	TemplateSnapshot *TemplateSnapshot `json:"template_snapshot,omitempty"`
	PercentageScore  *float64          `json:"percentage_score"`
	TotalScore       *float64          `json:"total_score"`
	PassStatus       *string           `json:"pass_status"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        *time.Time        `json:"created_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Coach            *UserRef          `json:"coach,omitempty"`
	Agent            *UserRef          `json:"agent,omitempty"`
}

// Score is one criterion's score within a session. Value is nil when the
// criterion is marked not applicable or left unanswered.
type Score struct {
	ID         string   `json:"id,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
	CriteriaID string   `json:"criteria_id"`
	Value      *float64 `json:"value"`
	IsNA       bool     `json:"is_na"`
	Comment    string   `json:"comment"`
}

// ScoreInput is the body of a score upsert.
type ScoreInput struct {
	Value   *float64 `json:"value"`
	IsNA    bool     `json:"is_na"`
	Comment string   `json:"comment"`
}

// SessionDetail is a session along with its submitted scores.
type SessionDetail struct {
	Session Session `json:"session"`
	Scores  []Score `json:"scores"`
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	Status          SessionStatus
	TemplateID      string
	IncludeTemplate bool
	IncludeUsers    bool
}
