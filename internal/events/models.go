package events

import (
	api "github.com/presentai/presentai/api/v1alpha1"
)

// JobEvent is the payload carried by job lifecycle events.
type JobEvent struct {
	JobID      string        `json:"job_id"`
	Title      string        `json:"title"`
	Status     api.JobStatus `json:"status"`
	TotalScore int           `json:"total_score,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// QuestionSetEvent is emitted when question generation for a job finishes.
type QuestionSetEvent struct {
	JobID     string             `json:"job_id"`
	Status    api.QuestionStatus `json:"status"`
	Questions int                `json:"questions"`
}
