package poll

import (
	"context"
	"time"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
)

// State is the lifecycle state of a polled job.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s != StatePending && s != ""
}

// Status is the outcome of one status check as reported by the provider.
// Only StateCompleted and StateFailed are meaningful; anything else counts as pending.
type Status struct {
	State  State
	URL    string
	Reason string
}

// CheckFunc queries the provider once for the job status.
type CheckFunc func(ctx context.Context) (Status, error)

// Poller tracks a single job. It is not safe for concurrent use and must not be reused.
type Poller struct {
	jobID    string
	cfg      Config
	events   chan<- Event
	state    State
	attempts int
	started  time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithEvents sets a channel that receives tick and terminal events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) Option {
	return func(p *Poller) {
		p.events = ch
	}
}

// New creates a poller for jobID. Non-positive budget fields fall back to DefaultConfig.
func New(jobID string, cfg Config, opts ...Option) *Poller {
	p := &Poller{
		jobID: jobID,
		cfg:   cfg.withDefaults(),
		state: StatePending,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current job state.
func (p *Poller) State() State { return p.state }

// Attempts returns the number of checks made so far.
func (p *Poller) Attempts() int { return p.attempts }

// Deadline returns the time after which the job is considered timed out.
// It is zero before Run is called.
func (p *Poller) Deadline() time.Time {
	if p.started.IsZero() {
		return time.Time{}
	}
	return p.started.Add(p.cfg.Budget())
}

// Run checks the job until it completes, fails, exhausts the budget or ctx ends.
// The first check happens immediately and Interval separates the following ones.
// On success it returns the image URL; otherwise the error is a *imagegate.PollError.
func (p *Poller) Run(ctx context.Context, check CheckFunc) (string, error) {
	logger := log.FromContextOrDiscard(ctx).With("job_id", p.jobID)
	p.started = time.Now()

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx); err != nil {
				return "", p.cancel(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return "", p.cancel(err)
		}

		p.attempts = attempt
		status, err := check(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", p.cancel(ctxErr)
			}
			emit(p.events, p.event(EventTick, err))
			logger.Debug("job status check failed", "attempt", attempt, "error", err)
			if imagegate.IsPermanent(err) || imagegate.IsUserInput(err) {
				return "", p.fail("status check rejected", err)
			}
			lastErr = err
			continue
		}

		emit(p.events, p.event(EventTick, nil))
		logger.Debug("job status", "attempt", attempt, "state", status.State)

		switch status.State {
		case StateCompleted:
			if status.URL == "" {
				return "", p.fail("job completed without an image URL", imagegate.ErrEmptyResult)
			}
			p.state = StateCompleted
			emit(p.events, p.event(EventCompleted, nil))
			return status.URL, nil
		case StateFailed:
			reason := status.Reason
			if reason == "" {
				reason = "provider reported failure"
			}
			return "", p.fail(reason, nil)
		}
	}

	p.state = StateTimedOut
	err := &imagegate.PollError{
		JobID:    p.jobID,
		Attempts: p.attempts,
		Err:      imagegate.ErrPollTimedOut,
		Cause:    lastErr,
	}
	emit(p.events, p.event(EventTimedOut, err))
	logger.Warn("job timed out", "attempts", p.attempts)
	return "", err
}

// wait blocks for one interval, returning early with the context error.
func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Poller) cancel(cause error) error {
	p.state = StateCancelled
	err := &imagegate.PollError{
		JobID:    p.jobID,
		Attempts: p.attempts,
		Err:      imagegate.ErrPollCancelled,
		Cause:    cause,
	}
	emit(p.events, p.event(EventCancelled, err))
	return err
}

func (p *Poller) fail(reason string, cause error) error {
	p.state = StateFailed
	err := &imagegate.PollError{
		JobID:    p.jobID,
		Attempts: p.attempts,
		Reason:   reason,
		Err:      imagegate.ErrJobFailed,
		Cause:    cause,
	}
	emit(p.events, p.event(EventFailed, err))
	return err
}

func (p *Poller) event(t EventType, err error) Event {
	return Event{
		Type:        t,
		JobID:       p.jobID,
		Attempt:     p.attempts,
		MaxAttempts: p.cfg.MaxAttempts,
		State:       p.state,
		Error:       err,
	}
}
