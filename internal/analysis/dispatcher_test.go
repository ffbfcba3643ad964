package analysis_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/presentai/presentai/internal/analysis"
	"github.com/presentai/presentai/internal/gemini"
)

type fakeGenerator struct {
	mu       sync.Mutex
	failures map[analysis.Task][]error
	calls    map[analysis.Task]int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		failures: map[analysis.Task][]error{},
		calls:    map[analysis.Task]int{},
	}
}

func (g *fakeGenerator) failWith(task analysis.Task, errs ...error) {
	g.failures[task] = errs
}

func taskOf(instruction string) analysis.Task {
	switch {
	case strings.Contains(instruction, "speech clarity coach"):
		return analysis.TaskClarity
	case strings.Contains(instruction, "body language coach"):
		return analysis.TaskGestures
	case strings.Contains(instruction, "vocal delivery coach"):
		return analysis.TaskInflection
	default:
		return analysis.TaskContent
	}
}

func (g *fakeGenerator) Generate(_ context.Context, instruction string, _ ...gemini.Handle) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	task := taskOf(instruction)
	call := g.calls[task]
	g.calls[task] = call + 1

	if errs := g.failures[task]; call < len(errs) {
		return "", errs[call]
	}

	if task == analysis.TaskClarity {
		return fmt.Sprintf(`{"transcript": "transcript for %s", "markers": [{"start": 1, "end": 2, "label": "issue", "severity": 2, "feedback": "tip"}]}`, task), nil
	}
	return `{"markers": [{"start": 3, "end": 4, "label": "issue", "severity": 1, "feedback": "tip"}]}`, nil
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func outcomeFor(outcomes []analysis.TaskOutcome, task analysis.Task) analysis.TaskOutcome {
	for _, o := range outcomes {
		if o.Task == task {
			return o
		}
	}
	return analysis.TaskOutcome{}
}

var _ = Describe("dispatcher", func() {
	var (
		generator *fakeGenerator
		sleeper   *recordingSleeper
		handle    gemini.Handle
	)

	BeforeEach(func() {
		generator = newFakeGenerator()
		sleeper = &recordingSleeper{}
		handle = gemini.Handle{Name: "files/abc", URI: "uri://abc", MIMEType: "video/mp4"}
	})

	newDispatcher := func(opts ...analysis.DispatcherOption) *analysis.Dispatcher {
		opts = append(opts, analysis.WithSleep(sleeper.sleep))
		return analysis.NewDispatcher(generator, opts...)
	}

	It("yields four populated results on a clean run", func() {
		results, outcomes := newDispatcher().Run(context.TODO(), handle, 60, "")

		Expect(results).To(HaveLen(4))
		Expect(outcomes).To(HaveLen(4))
		for _, task := range analysis.Tasks {
			Expect(results[task].Markers).To(HaveLen(1))
			Expect(outcomeFor(outcomes, task).Err).To(BeNil())
			Expect(outcomeFor(outcomes, task).Attempts).To(Equal(1))
		}
		Expect(results[analysis.TaskClarity].Transcript).ToNot(BeEmpty())
	})

	It("substitutes the fallback when one task fails hard", func() {
		generator.failWith(analysis.TaskGestures, fmt.Errorf("model rejected the request"))

		results, outcomes := newDispatcher().Run(context.TODO(), handle, 60, "")

		Expect(results[analysis.TaskGestures].Markers).To(BeEmpty())
		Expect(outcomeFor(outcomes, analysis.TaskGestures).Err).ToNot(BeNil())

		report := analysis.Aggregate(results, analysis.Metadata{Duration: 60})
		Expect(report.Scores.Gestures).To(Equal(25))
		Expect(report.Scores.Clarity).To(Equal(23))
		Expect(report.Scores.Inflection).To(Equal(24))
		Expect(report.Scores.Content).To(Equal(24))
	})

	It("does not retry non-transient failures", func() {
		generator.failWith(analysis.TaskContent, fmt.Errorf("%w: try later", gemini.ErrQuotaExhausted))

		_, outcomes := newDispatcher().Run(context.TODO(), handle, 60, "")

		Expect(outcomeFor(outcomes, analysis.TaskContent).Attempts).To(Equal(1))
		Expect(sleeper.delays).To(BeEmpty())
	})

	It("retries transient unavailability with growing backoff", func() {
		transient := fmt.Errorf("%w: 503 overloaded", gemini.ErrUnavailable)
		generator.failWith(analysis.TaskInflection, transient, transient, transient, transient)

		results, outcomes := newDispatcher(analysis.WithRetryPolicy(3, 5*time.Second)).Run(context.TODO(), handle, 60, "")

		outcome := outcomeFor(outcomes, analysis.TaskInflection)
		Expect(outcome.Attempts).To(Equal(4))
		Expect(outcome.Err).ToNot(BeNil())
		Expect(results[analysis.TaskInflection].Markers).To(BeEmpty())
		Expect(sleeper.delays).To(Equal([]time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}))
	})

	It("recovers when a retry succeeds", func() {
		generator.failWith(analysis.TaskClarity, fmt.Errorf("%w: 503", gemini.ErrUnavailable))

		results, outcomes := newDispatcher().Run(context.TODO(), handle, 60, "")

		Expect(outcomeFor(outcomes, analysis.TaskClarity).Err).To(BeNil())
		Expect(outcomeFor(outcomes, analysis.TaskClarity).Attempts).To(Equal(2))
		Expect(results[analysis.TaskClarity].Transcript).ToNot(BeEmpty())
	})

	It("runs all four tasks concurrently when enabled", func() {
		results, outcomes := newDispatcher(analysis.WithConcurrency(true)).Run(context.TODO(), handle, 60, "")

		Expect(results).To(HaveLen(4))
		for _, task := range analysis.Tasks {
			Expect(results[task].Markers).To(HaveLen(1))
			Expect(outcomeFor(outcomes, task).Err).To(BeNil())
		}
	})
})
