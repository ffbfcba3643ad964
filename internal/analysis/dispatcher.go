package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/presentai/presentai/internal/gemini"
	"github.com/presentai/presentai/pkg/metrics"
)

// Task names one of the four analysis dimensions. The name doubles as the
// category tag markers carry in the final report.
type Task string

const (
	TaskClarity    Task = "clarity"
	TaskGestures   Task = "gestures"
	TaskInflection Task = "inflection"
	TaskContent    Task = "content"
)

// Tasks lists the four tasks in dispatch order. Aggregation relies on this
// order to break marker ties.
var Tasks = []Task{TaskClarity, TaskGestures, TaskInflection, TaskContent}

// TextGenerator is the capability tasks are submitted to.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, media ...gemini.Handle) (string, error)
}

// TaskOutcome records how one task ended. Err is nil when the task produced
// usable output and carries the final error when the task fell back.
type TaskOutcome struct {
	Task     Task
	Attempts int
	Err      error
}

type Dispatcher struct {
	generator  TextGenerator
	concurrent bool
	retries    int
	backoff    time.Duration
	onTaskDone func(done, total int)

	sleep func(ctx context.Context, d time.Duration) error
}

type DispatcherOption func(d *Dispatcher)

// WithConcurrency runs the four tasks in parallel instead of sequentially.
// Sequential is the default: it stays inside provider rate limits.
func WithConcurrency(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.concurrent = enabled
	}
}

// WithRetryPolicy sets how often a transiently failing task is resubmitted
// and the backoff base; the delay before retry n is base*n.
func WithRetryPolicy(retries int, backoff time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.retries = retries
		d.backoff = backoff
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) DispatcherOption {
	return func(d *Dispatcher) {
		d.sleep = sleep
	}
}

// WithTaskProgress registers a callback invoked after each task finishes,
// fallback or not. Callers use it to advance job progress.
func WithTaskProgress(fn func(done, total int)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onTaskDone = fn
	}
}

func NewDispatcher(generator TextGenerator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		generator: generator,
		retries:   3,
		backoff:   5 * time.Second,
		sleep:     sleepContext,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run submits the four analysis tasks against one uploaded resource. A
// failing task never aborts the batch: its slot is filled with the empty
// fallback and its outcome carries the error. The returned map always has
// exactly four entries.
func (d *Dispatcher) Run(ctx context.Context, handle gemini.Handle, duration float64, supportingText string) (map[Task]Result, []TaskOutcome) {
	results := make([]Result, len(Tasks))
	outcomes := make([]TaskOutcome, len(Tasks))

	if d.concurrent {
		var wg sync.WaitGroup
		var done atomic.Int32
		for i, task := range Tasks {
			wg.Add(1)
			go func(i int, task Task) {
				defer wg.Done()
				results[i], outcomes[i] = d.runTask(ctx, task, handle, duration, supportingText)
				d.taskDone(int(done.Add(1)))
			}(i, task)
		}
		wg.Wait()
	} else {
		for i, task := range Tasks {
			results[i], outcomes[i] = d.runTask(ctx, task, handle, duration, supportingText)
			d.taskDone(i + 1)
		}
	}

	byTask := make(map[Task]Result, len(Tasks))
	for i, task := range Tasks {
		byTask[task] = results[i]
	}
	return byTask, outcomes
}

func (d *Dispatcher) taskDone(done int) {
	if d.onTaskDone != nil {
		d.onTaskDone(done, len(Tasks))
	}
}

func (d *Dispatcher) runTask(ctx context.Context, task Task, handle gemini.Handle, duration float64, supportingText string) (Result, TaskOutcome) {
	instruction := BuildInstruction(task, duration, supportingText)

	var raw string
	var err error
	attempts := 0
	for {
		attempts++
		raw, err = d.generator.Generate(ctx, instruction, handle)
		if err == nil {
			break
		}
		if !errors.Is(err, gemini.ErrUnavailable) || attempts > d.retries {
			break
		}
		delay := d.backoff * time.Duration(attempts)
		zap.S().Named("analysis").Warnf("Task %s unavailable (attempt %d), retrying in %s: %v", task, attempts, delay, err)
		if sleepErr := d.sleep(ctx, delay); sleepErr != nil {
			err = sleepErr
			break
		}
	}

	if err != nil {
		zap.S().Named("analysis").Warnf("Task %s fell back after %d attempt(s): %v", task, attempts, err)
		metrics.IncreaseAnalysisTasksMetric(string(task), "fallback")
		return emptyResult(), TaskOutcome{Task: task, Attempts: attempts, Err: err}
	}

	metrics.IncreaseAnalysisTasksMetric(string(task), "ok")
	return ParseTaskOutput(raw), TaskOutcome{Task: task, Attempts: attempts}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
