package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/config"
	"github.com/presentai/presentai/internal/document"
	"github.com/presentai/presentai/internal/events"
	"github.com/presentai/presentai/internal/gemini"
	"github.com/presentai/presentai/internal/remediation"
	"github.com/presentai/presentai/internal/service/mappers"
	"github.com/presentai/presentai/internal/store"
	"github.com/presentai/presentai/internal/store/model"
	"github.com/presentai/presentai/pkg/metrics"
	"github.com/presentai/presentai/pkg/poll"
)

// MediaAnalyzer is the slice of the generative capability the pipeline
// needs: media upload lifecycle plus text generation.
type MediaAnalyzer interface {
	UploadFile(ctx context.Context, path string) (gemini.Handle, error)
	ProbeFile(ctx context.Context, name string) (poll.State, error)
	DeleteFile(ctx context.Context, name string) error
	Generate(ctx context.Context, instruction string, media ...gemini.Handle) (string, error)
}

// DurationProber reports a media file's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Remediator generates demonstration clips for flagged markers.
type Remediator interface {
	Run(ctx context.Context, batch remediation.Batch) map[int]remediation.Outcome
}

// JobService owns the job lifecycle: it validates nothing the handlers
// already validated, persists the row, and drives the pipeline goroutine
// that is the only writer of a job's state.
type JobService struct {
	store       store.Store
	cfg         *config.Config
	analyzer    MediaAnalyzer
	prober      DurationProber
	remediator  Remediator
	eventWriter EventWriter
	extractText func(path string) string

	pipelines sync.WaitGroup
}

// EventWriter is the producer surface the services emit lifecycle events to.
type EventWriter interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

type JobServiceOption func(s *JobService)

func WithEventWriter(w EventWriter) JobServiceOption {
	return func(s *JobService) {
		s.eventWriter = w
	}
}

func WithRemediator(r Remediator) JobServiceOption {
	return func(s *JobService) {
		s.remediator = r
	}
}

func WithTextExtractor(fn func(path string) string) JobServiceOption {
	return func(s *JobService) {
		s.extractText = fn
	}
}

func NewJobService(store store.Store, cfg *config.Config, analyzer MediaAnalyzer, prober DurationProber, opts ...JobServiceOption) *JobService {
	s := &JobService{
		store:       store,
		cfg:         cfg,
		analyzer:    analyzer,
		prober:      prober,
		extractText: document.Extract,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateJob persists the uploaded files and the Queued row, then hands the
// job to the pipeline goroutine. The row exists before the goroutine starts
// so a status query never races job creation.
func (s *JobService) CreateJob(ctx context.Context, form mappers.JobCreateForm) (*model.Job, error) {
	if form.Video == nil || form.VideoName == "" {
		return nil, NewErrInvalidUpload("a video file is required")
	}

	id := uuid.New()
	jobDir := s.jobDir(id)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	videoPath, err := persistUpload(jobDir, "video", form.VideoName, form.Video)
	if err != nil {
		_ = os.RemoveAll(jobDir)
		return nil, err
	}

	supportingPath := ""
	if form.Supporting != nil {
		supportingPath, err = persistUpload(jobDir, "supporting", form.SupportingName, form.Supporting)
		if err != nil {
			_ = os.RemoveAll(jobDir)
			return nil, err
		}
	}

	job, err := s.store.Job().Create(ctx, form.ToJob(id, videoPath))
	if err != nil {
		_ = os.RemoveAll(jobDir)
		return nil, err
	}

	metrics.IncreaseJobsCreatedMetric()
	s.writeJobEvent(ctx, events.JobCreatedKind, *job, 0)
	zap.S().Named("job_service").Infow("job created", "job_id", id, "title", job.Title)

	in := pipelineInput{
		jobID:          id,
		videoPath:      videoPath,
		videoName:      form.VideoName,
		supportingPath: supportingPath,
		supportingName: form.SupportingName,
	}

	s.pipelines.Add(1)
	go func() {
		defer s.pipelines.Done()
		s.runPipeline(in)
	}()

	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context, filter *store.JobQueryFilter, opts *store.JobQueryOptions) (model.JobList, error) {
	return s.store.Job().List(ctx, filter, opts)
}

// GetJob returns the job row, preferring a durably persisted report over
// the row's own bookkeeping: if a report exists the job reads as completed
// no matter what the row says. This tolerates a process dying between the
// report write and the final status update.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	if _, err := s.store.Report().Get(ctx, id); err == nil {
		job.Status = string(api.JobStatusCompleted)
		job.Progress = 100
		job.Message = "Analysis complete"
	}

	return job, nil
}

func (s *JobService) GetReport(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	report, err := s.store.Report().Get(ctx, id)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	if _, jobErr := s.store.Job().Get(ctx, id); jobErr != nil {
		if errors.Is(jobErr, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, jobErr
	}
	return nil, NewErrReportNotFound(id)
}

// GetVideoPath resolves the uploaded recording for streaming.
func (s *JobService) GetVideoPath(ctx context.Context, id uuid.UUID) (string, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", NewErrJobNotFound(id)
		}
		return "", err
	}
	return job.VideoPath, nil
}

// GetClipPath resolves a remediation clip by its index in the job's clip
// directory.
func (s *JobService) GetClipPath(ctx context.Context, id uuid.UUID, clipIndex int) (string, error) {
	if _, err := s.store.Job().Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", NewErrJobNotFound(id)
		}
		return "", err
	}

	path := filepath.Join(s.jobDir(id), "clips", fmt.Sprintf("clip_%d.mp4", clipIndex))
	if _, err := os.Stat(path); err != nil {
		return "", NewErrJobNotFound(id)
	}
	return path, nil
}

// DeleteJob removes the rows and the on-disk media in one pass. Deleting an
// unknown id is not an error.
func (s *JobService) DeleteJob(ctx context.Context, id uuid.UUID) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if err := s.store.Report().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}
	if err := s.store.Question().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}
	if err := s.store.Job().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}
	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(s.jobDir(id)); err != nil {
		zap.S().Named("job_service").Warnf("failed to remove files for job %s: %v", id, err)
	}

	return nil
}

// Wait blocks until every running pipeline goroutine has finished. Tests
// and shutdown use it to drain in-flight jobs.
func (s *JobService) Wait() {
	s.pipelines.Wait()
}

func (s *JobService) jobDir(id uuid.UUID) string {
	return filepath.Join(s.cfg.Service.DataDir, id.String())
}

func persistUpload(dir, stem, original string, r io.Reader) (string, error) {
	path := filepath.Join(dir, stem+strings.ToLower(filepath.Ext(original)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	return path, nil
}
