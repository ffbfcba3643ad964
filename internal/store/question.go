package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/presentai/presentai/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Question interface {
	InitialMigration() error
	Get(ctx context.Context, jobID uuid.UUID) (*model.QuestionSet, error)
	Save(ctx context.Context, questions model.QuestionSet) (*model.QuestionSet, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

type QuestionStore struct {
	db *gorm.DB
}

// Make sure we conform to Question interface
var _ Question = (*QuestionStore)(nil)

func NewQuestionStore(db *gorm.DB) Question {
	return &QuestionStore{db: db}
}

func (q *QuestionStore) InitialMigration() error {
	return q.db.AutoMigrate(&model.QuestionSet{})
}

func (q *QuestionStore) Get(ctx context.Context, jobID uuid.UUID) (*model.QuestionSet, error) {
	var questions model.QuestionSet
	result := q.getDB(ctx).First(&questions, "job_id = ?", jobID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &questions, nil
}

// Save upserts the question set. The generation goroutine calls it once to
// mark the set generating and again with the terminal outcome.
func (q *QuestionStore) Save(ctx context.Context, questions model.QuestionSet) (*model.QuestionSet, error) {
	result := q.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "questions", "error", "updated_at"}),
	}).Create(&questions)
	if result.Error != nil {
		return nil, result.Error
	}
	return &questions, nil
}

func (q *QuestionStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	result := q.getDB(ctx).Unscoped().Delete(&model.QuestionSet{}, "job_id = ?", jobID.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (q *QuestionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return q.db
}
