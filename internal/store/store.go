package store

import (
	"context"

	"github.com/presentai/presentai/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	Report() Report
	Question() Question
	Statistics(ctx context.Context) (model.JobStats, error)
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	job      Job
	report   Report
	question Question
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:       db,
		job:      NewJobStore(db),
		report:   NewReportStore(db),
		question: NewQuestionStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Report() Report {
	return s.report
}

func (s *DataStore) Question() Question {
	return s.question
}

// Statistics aggregates job and report counts for the metrics collector.
func (s *DataStore) Statistics(ctx context.Context) (model.JobStats, error) {
	jobs, err := s.Job().List(ctx, nil, nil)
	if err != nil {
		return model.JobStats{}, err
	}

	var reports int64
	if err := s.db.WithContext(ctx).Model(&model.Report{}).Count(&reports).Error; err != nil {
		return model.JobStats{}, err
	}

	return model.NewJobStats(jobs, int(reports)), nil
}

func (s *DataStore) InitialMigration() error {
	if err := s.job.InitialMigration(); err != nil {
		return err
	}
	if err := s.report.InitialMigration(); err != nil {
		return err
	}
	return s.question.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
