package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionSet tracks the question-generation sub-job of one analysis job.
type QuestionSet struct {
	JobID     uuid.UUID `gorm:"primaryKey;column:job_id;type:VARCHAR(255);"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
	Status    string               `gorm:"type:VARCHAR(50);not null"`
	Questions *JSONField[[]string] `gorm:"type:jsonb"`
	Error     string               `gorm:"type:TEXT"`
}

func (q QuestionSet) String() string {
	val, _ := json.Marshal(q)
	return string(val)
}
