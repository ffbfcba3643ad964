package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
	Title     string  `gorm:"type:VARCHAR(255);not null"`
	Status    string  `gorm:"type:VARCHAR(50);not null;index:jobs_status_idx"`
	Progress  int     `gorm:"not null;default:0"`
	Message   string  `gorm:"type:TEXT"`
	VideoPath string  `gorm:"type:TEXT"`
	Report    *Report `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE;"`
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
