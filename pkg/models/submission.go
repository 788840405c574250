package models

import "time"

// Submission is one stored assessment: the company context, the raw answers
// and the derived result. Records are append-only; there is no update or
// delete path.
type Submission struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	Company       string            `json:"company,omitempty"`
	Email         string            `json:"email,omitempty"`
	Cohort        string            `json:"cohort,omitempty"`
	Sector        string            `json:"sector,omitempty"`
	EmployeeCount string            `json:"employee_count,omitempty"`
	Request       AssessmentRequest `json:"request"`
	Result        ScoreResult       `json:"result"`
}

// SubmissionFilter narrows List queries over the submission log. Zero values
// mean "no constraint".
type SubmissionFilter struct {
	Cohort string `json:"cohort,omitempty"`
	Sector string `json:"sector,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// SubmissionEvent is the payload published to the event stream when a
// submission is stored, for downstream CRM sync.
type SubmissionEvent struct {
	EventID    string     `json:"event_id"`
	Type       string     `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	Submission Submission `json:"submission"`
}
