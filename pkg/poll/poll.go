package poll

import (
	"context"
	"errors"
	"time"
)

// State is the lifecycle of an asynchronous external resource as seen by
// one probe.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrTimedOut is returned when the resource is still pending once the
	// ceiling has elapsed.
	ErrTimedOut = errors.New("readiness poll timed out")
	// ErrResourceFailed is returned when the resource reports a failed
	// terminal state.
	ErrResourceFailed = errors.New("resource entered failed state")
)

// Func probes the resource once.
type Func func(ctx context.Context) (State, error)

// Poller repeatedly probes an asynchronous resource until it becomes ready,
// fails, or the ceiling elapses. Interval and Ceiling come from
// configuration so every caller shares this one implementation.
//
// Now and Sleep default to the real clock and may be replaced in tests.
type Poller struct {
	Interval time.Duration
	Ceiling  time.Duration

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func New(interval, ceiling time.Duration) *Poller {
	return &Poller{
		Interval: interval,
		Ceiling:  ceiling,
	}
}

// Wait probes until the resource is ready. It returns nil on ready,
// ErrResourceFailed if the resource reports failure, ErrTimedOut if the
// ceiling elapses while the resource is still pending, and the probe's own
// error unchanged if probing itself fails.
func (p *Poller) Wait(ctx context.Context, probe Func) error {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	start := now()
	for {
		state, err := probe(ctx)
		if err != nil {
			return err
		}

		switch state {
		case StateReady:
			return nil
		case StateFailed:
			return ErrResourceFailed
		}

		if now().Sub(start) >= p.Ceiling {
			return ErrTimedOut
		}

		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}
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
