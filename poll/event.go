package poll

import "time"

// EventType identifies the kind of event occurring while polling a job.
type EventType string

const (
	// EventTick fires after each status check.
	EventTick EventType = "tick"

	// EventCompleted fires when the job produced an image.
	EventCompleted EventType = "completed"

	// EventFailed fires when the job reported failure.
	EventFailed EventType = "failed"

	// EventTimedOut fires when the attempt budget is exhausted.
	EventTimedOut EventType = "timed_out"

	// EventCancelled fires when the context ends polling.
	EventCancelled EventType = "cancelled"
)

// Event represents an observable occurrence while polling a job.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// JobID is the provider job handle.
	JobID string

	// Attempt is the number of checks made so far (1-indexed).
	Attempt int

	// MaxAttempts is the attempt budget.
	MaxAttempts int

	// State is the job state observed at the time of the event.
	State State

	// Error contains the check failure for ticks, or the terminal error.
	Error error

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
