package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/analysis"
	"github.com/presentai/presentai/internal/events"
	"github.com/presentai/presentai/internal/remediation"
	"github.com/presentai/presentai/internal/store/model"
	"github.com/presentai/presentai/pkg/metrics"
	"github.com/presentai/presentai/pkg/poll"
)

type pipelineInput struct {
	jobID          uuid.UUID
	videoPath      string
	videoName      string
	supportingPath string
	supportingName string
}

// pipelineRun tracks the single writer of one job's lifecycle. Progress only
// ever moves forward; a failure keeps the progress reached so far. The lock
// serializes the per-task progress callbacks when analysis runs concurrently.
type pipelineRun struct {
	svc   *JobService
	jobID uuid.UUID

	lock     sync.Mutex
	progress int
}

// runPipeline drives one job from Queued to a terminal state. Every stage
// error, including a panic, turns into Failed with the error text recorded
// verbatim in the job's message.
func (s *JobService) runPipeline(in pipelineInput) {
	ctx := context.Background()
	run := &pipelineRun{svc: s, jobID: in.jobID}

	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("pipeline").Errorw("pipeline panicked", "job_id", in.jobID, "panic", r)
			run.fail(ctx, fmt.Sprintf("%v", r))
		}
	}()

	if err := s.executeStages(ctx, run, in); err != nil {
		run.fail(ctx, err.Error())
	}
}

func (s *JobService) executeStages(ctx context.Context, run *pipelineRun, in pipelineInput) error {
	if err := run.advance(ctx, 5, "Probing video duration"); err != nil {
		return err
	}
	duration, err := s.prober.Duration(ctx, in.videoPath)
	if err != nil {
		return err
	}

	limit := s.cfg.Service.MaxVideoDuration.Seconds()
	if duration > limit {
		return NewErrDurationLimit(duration, limit)
	}

	if err := run.advance(ctx, 10, "Uploading media for analysis"); err != nil {
		return err
	}
	uploadStart := time.Now()
	handle, err := s.analyzer.UploadFile(ctx, in.videoPath)
	if err != nil {
		return NewErrResourceUpload(err)
	}
	defer func() {
		if err := s.analyzer.DeleteFile(ctx, handle.Name); err != nil {
			zap.S().Named("pipeline").Warnf("failed to delete uploaded media %s: %v", handle.Name, err)
		}
	}()

	if err := run.advance(ctx, 15, "Waiting for media to become ready"); err != nil {
		return err
	}
	poller := poll.New(s.cfg.Service.MediaPollInterval, s.cfg.Service.MediaPollCeiling)
	err = poller.Wait(ctx, func(ctx context.Context) (poll.State, error) {
		return s.analyzer.ProbeFile(ctx, handle.Name)
	})
	switch {
	case errors.Is(err, poll.ErrTimedOut):
		metrics.IncreasePollTimeoutsMetric("media_upload")
		return NewErrTimedOut("uploaded media")
	case errors.Is(err, poll.ErrResourceFailed):
		return NewErrResourceFailed("uploaded media")
	case err != nil:
		return err
	}
	metrics.ObserveJobStageDurationMetric("media_upload", time.Since(uploadStart))

	supportingText := ""
	if in.supportingPath != "" {
		supportingText = s.extractText(in.supportingPath)
	}

	if err := run.advance(ctx, 25, "Running analysis tasks"); err != nil {
		return err
	}
	analysisStart := time.Now()
	dispatcher := analysis.NewDispatcher(s.analyzer,
		analysis.WithConcurrency(s.cfg.Service.ConcurrentAnalysis),
		analysis.WithRetryPolicy(s.cfg.Service.TaskRetries, s.cfg.Service.TaskRetryBackoff),
		analysis.WithTaskProgress(func(done, total int) {
			_ = run.advance(ctx, 25+done*40/total, "Running analysis tasks")
		}),
	)
	results, outcomes := dispatcher.Run(ctx, handle, duration, supportingText)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			zap.S().Named("pipeline").Warnw("analysis task fell back",
				"job_id", in.jobID, "task", outcome.Task, "attempts", outcome.Attempts, "error", outcome.Err)
		}
	}
	metrics.ObserveJobStageDurationMetric("analysis", time.Since(analysisStart))

	if err := run.advance(ctx, 70, "Scoring results"); err != nil {
		return err
	}
	report := analysis.Aggregate(results, analysis.Metadata{
		Duration:       duration,
		VideoFile:      in.videoName,
		SupportingFile: in.supportingName,
		AnalyzedBy:     s.cfg.GenAI.AnalysisModel,
	})
	report.VideoURL = fmt.Sprintf("/api/v1alpha1/jobs/%s/video", in.jobID)

	if err := s.persistReport(ctx, in.jobID, report); err != nil {
		return err
	}

	if s.remediator != nil {
		if err := run.advance(ctx, 75, "Generating remediation clips"); err != nil {
			return err
		}
		remediationStart := time.Now()
		clipOutcomes := s.remediator.Run(ctx, remediation.Batch{
			JobID:     in.jobID.String(),
			VideoPath: in.videoPath,
			Duration:  duration,
			ClipsDir:  filepath.Join(s.jobDir(in.jobID), "clips"),
			Markers:   report.Markers,
		})
		for idx, outcome := range clipOutcomes {
			if outcome.Err != nil {
				zap.S().Named("pipeline").Warnw("remediation item failed",
					"job_id", in.jobID, "marker_index", idx, "error", outcome.Err)
				continue
			}
			report.Markers[idx].ClipRef = outcome.ClipRef
		}
		metrics.ObserveJobStageDurationMetric("remediation", time.Since(remediationStart))

		if err := run.advance(ctx, 95, "Finalizing"); err != nil {
			return err
		}
		if err := s.persistReport(ctx, in.jobID, report); err != nil {
			return err
		}
	}

	return run.complete(ctx, report.Scores.Total)
}

func (s *JobService) persistReport(ctx context.Context, jobID uuid.UUID, report api.AggregatedReport) error {
	_, err := s.store.Report().Save(ctx, model.Report{
		JobID:    jobID,
		Document: model.MakeJSONField(report),
	})
	if err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}
	return nil
}

func (r *pipelineRun) advance(ctx context.Context, progress int, message string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if progress < r.progress {
		progress = r.progress
	}
	r.progress = progress

	_, err := r.svc.store.Job().UpdateState(ctx, r.jobID, string(api.JobStatusProcessing), progress, message)
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	return nil
}

func (r *pipelineRun) complete(ctx context.Context, totalScore int) error {
	job, err := r.svc.store.Job().UpdateState(ctx, r.jobID, string(api.JobStatusCompleted), 100, "Analysis complete")
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}

	metrics.IncreaseJobsCompletedMetric()
	r.svc.writeJobEvent(ctx, events.JobCompletedKind, *job, totalScore)
	zap.S().Named("pipeline").Infow("job completed", "job_id", r.jobID, "total_score", totalScore)
	return nil
}

func (r *pipelineRun) fail(ctx context.Context, message string) {
	job, err := r.svc.store.Job().UpdateState(ctx, r.jobID, string(api.JobStatusFailed), r.progress, message)
	if err != nil {
		zap.S().Named("pipeline").Errorw("failed to record job failure", "job_id", r.jobID, "error", err)
		return
	}

	metrics.IncreaseJobsFailedMetric()
	r.svc.writeJobEvent(ctx, events.JobFailedKind, *job, 0)
	zap.S().Named("pipeline").Warnw("job failed", "job_id", r.jobID, "message", message)
}

func (s *JobService) writeJobEvent(ctx context.Context, kind string, job model.Job, totalScore int) {
	if s.eventWriter == nil {
		return
	}

	data, err := json.Marshal(events.JobEvent{
		JobID:      job.ID.String(),
		Title:      job.Title,
		Status:     api.JobStatus(job.Status),
		TotalScore: totalScore,
		Message:    job.Message,
	})
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, kind, bytes.NewReader(data)); err != nil {
		zap.S().Named("job_service").Errorw("failed to write event", "error", err, "event_kind", kind)
	}
}
