package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/presentai/presentai/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Report interface {
	InitialMigration() error
	Get(ctx context.Context, jobID uuid.UUID) (*model.Report, error)
	Save(ctx context.Context, report model.Report) (*model.Report, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

type ReportStore struct {
	db *gorm.DB
}

// Make sure we conform to Report interface
var _ Report = (*ReportStore)(nil)

func NewReportStore(db *gorm.DB) Report {
	return &ReportStore{db: db}
}

func (r *ReportStore) InitialMigration() error {
	return r.db.AutoMigrate(&model.Report{})
}

func (r *ReportStore) Get(ctx context.Context, jobID uuid.UUID) (*model.Report, error) {
	var report model.Report
	result := r.getDB(ctx).First(&report, "job_id = ?", jobID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &report, nil
}

// Save persists the report, replacing the document if the job already has
// one. The pipeline saves once after scoring and again after remediation
// attaches clip references.
func (r *ReportStore) Save(ctx context.Context, report model.Report) (*model.Report, error) {
	result := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document"}),
	}).Create(&report)
	if result.Error != nil {
		return nil, result.Error
	}
	return &report, nil
}

func (r *ReportStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	result := r.getDB(ctx).Unscoped().Delete(&model.Report{}, "job_id = ?", jobID.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (r *ReportStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return r.db
}
