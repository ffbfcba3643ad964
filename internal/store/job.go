package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/presentai/presentai/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Job interface {
	InitialMigration() error
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	UpdateState(ctx context.Context, id uuid.UUID, status string, progress int, message string) (*model.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (j *JobStore) InitialMigration() error {
	return j.db.AutoMigrate(&model.Job{})
}

func (j *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
	tx := j.getDB(ctx).Model(&jobs).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (j *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := j.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (j *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	result := j.getDB(ctx).Clauses(clause.Returning{}).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &job, nil
}

// UpdateState is called only by the pipeline driver, the single writer of a
// job's lifecycle.
func (j *JobStore) UpdateState(ctx context.Context, id uuid.UUID, status string, progress int, message string) (*model.Job, error) {
	var job model.Job
	if err := j.getDB(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	now := time.Now()
	if err := j.getDB(ctx).Model(&job).Updates(map[string]any{
		"status":     status,
		"progress":   progress,
		"message":    message,
		"updated_at": &now,
	}).Error; err != nil {
		return nil, err
	}

	job.Status = status
	job.Progress = progress
	job.Message = message
	job.UpdatedAt = &now
	return &job, nil
}

func (j *JobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := j.getDB(ctx).Unscoped().Delete(&model.Job{}, "id = ?", id.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (j *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return j.db
}
