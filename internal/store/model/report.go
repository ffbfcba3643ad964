package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	api "github.com/presentai/presentai/api/v1alpha1"
)

// Report is the durably persisted outcome of a completed job. Its existence
// is authoritative: a job with a report row is completed no matter what the
// job row says.
type Report struct {
	JobID     uuid.UUID                        `gorm:"primaryKey;column:job_id;type:VARCHAR(255);"`
	CreatedAt time.Time                        `gorm:"not null"`
	Document  *JSONField[api.AggregatedReport] `gorm:"type:jsonb;not null"`
}

func (r Report) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
