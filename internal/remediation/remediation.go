// Package remediation turns gesture findings into short demonstration clips.
// Each eligible marker runs a two-phase sub-pipeline: extract two stills
// framing the issue, then drive an asynchronous video generation seeded by
// them. Items fail independently; quota exhaustion stops further attempts.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/gemini"
	"github.com/presentai/presentai/pkg/metrics"
	"github.com/presentai/presentai/pkg/poll"
)

const (
	edgeEpsilon = 0.1
	maxClipSpan = 5.0
	minClipSpan = 0.5
)

// StillExtractor renders one frame of the source recording.
type StillExtractor interface {
	ExtractStill(ctx context.Context, path string, atSeconds float64) ([]byte, error)
}

// VideoGenerator drives the provider's asynchronous clip generation.
type VideoGenerator interface {
	StartVideo(ctx context.Context, firstFrame, lastFrame []byte, instruction string) (string, error)
	ProbeOperation(ctx context.Context, name string) (poll.State, string, error)
	FetchVideo(ctx context.Context, resultRef string) ([]byte, error)
}

// Archive stores finished clips off-box. Archival failures degrade to a log
// line; the local clip is the source of truth.
type Archive interface {
	Put(ctx context.Context, key string, payload []byte) error
}

// Batch is one remediation run over a job's aggregated markers.
type Batch struct {
	JobID     string
	VideoPath string
	Duration  float64
	ClipsDir  string
	Markers   []api.Marker
}

// Outcome records how one eligible marker ended. ClipRef is set on success;
// Err carries the failure or the quota short-circuit.
type Outcome struct {
	ClipRef string
	Err     error
}

type Generator struct {
	stills  StillExtractor
	videos  VideoGenerator
	archive Archive
	poller  *poll.Poller
}

type GeneratorOption func(g *Generator)

// WithPoller replaces the generation readiness poller.
func WithPoller(poller *poll.Poller) GeneratorOption {
	return func(g *Generator) {
		g.poller = poller
	}
}

// WithArchive enables off-box clip archival.
func WithArchive(archive Archive) GeneratorOption {
	return func(g *Generator) {
		g.archive = archive
	}
}

func NewGenerator(stills StillExtractor, videos VideoGenerator, opts ...GeneratorOption) *Generator {
	g := &Generator{
		stills: stills,
		videos: videos,
		poller: poll.New(10*time.Second, 10*time.Minute),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Run generates clips for every gesture marker in the batch. The returned
// map is keyed by the marker's index in batch.Markers and only contains
// eligible markers. Per-item failures never fail the batch; once quota
// exhaustion is reported, the remaining items are recorded as skipped
// without contacting the provider again.
func (g *Generator) Run(ctx context.Context, batch Batch) map[int]Outcome {
	outcomes := make(map[int]Outcome)
	clipIndex := 0
	quotaHit := false

	for idx, marker := range batch.Markers {
		if marker.Category != api.CategoryGestures {
			continue
		}

		if quotaHit {
			outcomes[idx] = Outcome{Err: fmt.Errorf("%w: item skipped", gemini.ErrQuotaExhausted)}
			metrics.IncreaseRemediationItemsMetric("skipped")
			clipIndex++
			continue
		}

		outcome := g.generateClip(ctx, batch, marker, clipIndex)
		outcomes[idx] = outcome
		clipIndex++

		if outcome.Err == nil {
			metrics.IncreaseRemediationItemsMetric("ok")
			continue
		}
		metrics.IncreaseRemediationItemsMetric("failed")
		zap.S().Named("remediation").Warnf("Clip %d of job %s failed: %v", clipIndex-1, batch.JobID, outcome.Err)
		if errors.Is(outcome.Err, gemini.ErrQuotaExhausted) {
			zap.S().Named("remediation").Warnf("Quota exhausted, skipping remaining clips of job %s", batch.JobID)
			quotaHit = true
		}
	}
	return outcomes
}

func (g *Generator) generateClip(ctx context.Context, batch Batch, marker api.Marker, clipIndex int) Outcome {
	start, end := clampSpan(marker.Start, marker.End, batch.Duration)

	var firstFrame, lastFrame []byte
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		firstFrame, err = g.stills.ExtractStill(groupCtx, batch.VideoPath, start)
		return err
	})
	group.Go(func() error {
		var err error
		lastFrame, err = g.stills.ExtractStill(groupCtx, batch.VideoPath, end)
		return err
	})
	if err := group.Wait(); err != nil {
		return Outcome{Err: fmt.Errorf("failed to extract stills: %w", err)}
	}

	opName, err := g.videos.StartVideo(ctx, firstFrame, lastFrame, Instruction(marker.Feedback))
	if err != nil {
		return Outcome{Err: err}
	}

	var resultRef string
	err = g.poller.Wait(ctx, func(ctx context.Context) (poll.State, error) {
		state, ref, probeErr := g.videos.ProbeOperation(ctx, opName)
		if ref != "" {
			resultRef = ref
		}
		return state, probeErr
	})
	if err != nil {
		if errors.Is(err, poll.ErrTimedOut) {
			metrics.IncreasePollTimeoutsMetric("video_generation")
		}
		return Outcome{Err: err}
	}

	payload, err := g.videos.FetchVideo(ctx, resultRef)
	if err != nil {
		return Outcome{Err: err}
	}

	if err := os.MkdirAll(batch.ClipsDir, 0o755); err != nil {
		return Outcome{Err: fmt.Errorf("failed to create clips dir: %w", err)}
	}
	clipPath := filepath.Join(batch.ClipsDir, fmt.Sprintf("clip_%d.mp4", clipIndex))
	if err := os.WriteFile(clipPath, payload, 0o644); err != nil {
		return Outcome{Err: fmt.Errorf("failed to persist clip: %w", err)}
	}

	if g.archive != nil {
		key := fmt.Sprintf("%s/clip_%d.mp4", batch.JobID, clipIndex)
		if err := g.archive.Put(ctx, key, payload); err != nil {
			zap.S().Named("remediation").Warnf("Failed to archive clip %s: %v", key, err)
		}
	}

	return Outcome{ClipRef: fmt.Sprintf("/api/v1alpha1/jobs/%s/clips/%d", batch.JobID, clipIndex)}
}

// Instruction describes the corrected behavior the clip should demonstrate.
func Instruction(feedback string) string {
	return "Demonstrate the CORRECT way to present with improved body language. " +
		"Show a presenter who is confident, engaging, and knowledgeable. " +
		fmt.Sprintf("Specifically address this issue: %s ", feedback) +
		"The video should visually demonstrate the proper technique - show open, relaxed gestures, " +
		"confident posture, and engaging movements. This is a demonstration video that viewers " +
		"can watch and emulate. Show the corrected behavior clearly and professionally, not " +
		"conversational but instructional - what to do instead of the problem."
}

// clampSpan pulls the marker window inside the recording with an epsilon
// margin, caps it at the maximum span and stretches it to the minimum one.
func clampSpan(start, end, duration float64) (float64, float64) {
	start = math.Max(0, math.Min(start, duration-edgeEpsilon))
	if end-start > maxClipSpan {
		end = start + maxClipSpan
	}
	maxEnd := math.Max(start+minClipSpan, duration-edgeEpsilon)
	end = math.Min(end, maxEnd)
	if end-start < minClipSpan {
		end = math.Min(start+minClipSpan, duration-edgeEpsilon)
	}
	return start, end
}
