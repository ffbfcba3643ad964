package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/analysis"
	"github.com/presentai/presentai/internal/events"
	"github.com/presentai/presentai/internal/store"
	"github.com/presentai/presentai/internal/store/model"
)

// QuestionService drives the question-generation sub-job. Its lifecycle is
// independent of the analysis pipeline and keyed by the job id.
type QuestionService struct {
	store       store.Store
	generator   analysis.TextGenerator
	eventWriter EventWriter

	generations sync.WaitGroup
}

type QuestionServiceOption func(s *QuestionService)

func WithQuestionEventWriter(w EventWriter) QuestionServiceOption {
	return func(s *QuestionService) {
		s.eventWriter = w
	}
}

func NewQuestionService(store store.Store, generator analysis.TextGenerator, opts ...QuestionServiceOption) *QuestionService {
	s := &QuestionService{
		store:     store,
		generator: generator,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartGeneration begins generating anticipated audience questions for a
// completed job. It requires a persisted report with a non-empty transcript
// and refuses to start while a previous generation is still running.
func (s *QuestionService) StartGeneration(ctx context.Context, jobID uuid.UUID) (*model.QuestionSet, error) {
	report, err := s.store.Report().Get(ctx, jobID)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
		if _, jobErr := s.store.Job().Get(ctx, jobID); jobErr != nil {
			if errors.Is(jobErr, store.ErrRecordNotFound) {
				return nil, NewErrJobNotFound(jobID)
			}
			return nil, jobErr
		}
		return nil, NewErrReportNotReady(jobID, "no report has been persisted")
	}

	transcript := ""
	if report.Document != nil {
		transcript = report.Document.Data.Transcript
	}
	if transcript == "" {
		return nil, NewErrReportNotReady(jobID, "the report has no transcript")
	}

	if existing, err := s.store.Question().Get(ctx, jobID); err == nil {
		if existing.Status == string(api.QuestionStatusGenerating) {
			return nil, NewErrQuestionsGenerating(jobID)
		}
	}

	questionSet, err := s.store.Question().Save(ctx, model.QuestionSet{
		JobID:  jobID,
		Status: string(api.QuestionStatusGenerating),
	})
	if err != nil {
		return nil, err
	}

	s.generations.Add(1)
	go func() {
		defer s.generations.Done()
		s.generate(jobID, transcript)
	}()

	return questionSet, nil
}

// GetQuestions returns the question sub-job row for the given job id.
func (s *QuestionService) GetQuestions(ctx context.Context, jobID uuid.UUID) (*model.QuestionSet, error) {
	questionSet, err := s.store.Question().Get(ctx, jobID)
	if err == nil {
		return questionSet, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	if _, jobErr := s.store.Job().Get(ctx, jobID); jobErr != nil {
		if errors.Is(jobErr, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, jobErr
	}
	return nil, NewErrQuestionSetNotFound(jobID)
}

// Wait blocks until every running generation goroutine has finished.
func (s *QuestionService) Wait() {
	s.generations.Wait()
}

func (s *QuestionService) generate(jobID uuid.UUID, transcript string) {
	ctx := context.Background()
	log := zap.S().Named("question_service")

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("question generation panicked", "job_id", jobID, "panic", r)
			s.finish(ctx, jobID, nil, NewErrParse(errors.New("question generation aborted")))
		}
	}()

	instruction := analysis.BuildQuestionInstruction(transcript)

	raw, err := s.generator.Generate(ctx, instruction)
	if err != nil {
		s.finish(ctx, jobID, nil, err)
		return
	}

	questions, err := analysis.ParseQuestions(raw)
	if err != nil {
		s.finish(ctx, jobID, nil, NewErrParse(err))
		return
	}

	s.finish(ctx, jobID, questions, nil)
}

func (s *QuestionService) finish(ctx context.Context, jobID uuid.UUID, questions []string, genErr error) {
	now := time.Now()
	questionSet := model.QuestionSet{
		JobID:     jobID,
		UpdatedAt: &now,
	}
	if genErr != nil {
		questionSet.Status = string(api.QuestionStatusFailed)
		questionSet.Error = genErr.Error()
	} else {
		questionSet.Status = string(api.QuestionStatusCompleted)
		questionSet.Questions = model.MakeJSONField(questions)
	}

	if _, err := s.store.Question().Save(ctx, questionSet); err != nil {
		zap.S().Named("question_service").Errorw("failed to persist question set", "job_id", jobID, "error", err)
		return
	}

	s.writeQuestionsEvent(ctx, jobID, questionSet.Status, len(questions))
	zap.S().Named("question_service").Infow("question generation finished",
		"job_id", jobID, "status", questionSet.Status, "questions", len(questions))
}

func (s *QuestionService) writeQuestionsEvent(ctx context.Context, jobID uuid.UUID, status string, count int) {
	if s.eventWriter == nil {
		return
	}

	data, err := json.Marshal(events.QuestionSetEvent{
		JobID:     jobID.String(),
		Status:    api.QuestionStatus(status),
		Questions: count,
	})
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.QuestionsCompletedKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("question_service").Errorw("failed to write event", "error", err, "event_kind", events.QuestionsCompletedKind)
	}
}
