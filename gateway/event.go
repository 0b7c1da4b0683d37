package gateway

import (
	"time"

	"github.com/spetersoncode/imagegate"
)

// EventType identifies the kind of event occurring during a generation.
type EventType string

const (
	// EventAttemptStart fires before a provider is called.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires after a provider call failed.
	EventAttemptFailed EventType = "attempt_failed"

	// EventSuccess fires when a provider returned an image.
	EventSuccess EventType = "success"

	// EventExhausted fires when every fan-out candidate failed.
	EventExhausted EventType = "exhausted"
)

// Mode is the selection mode of a generation.
type Mode string

const (
	ModeTargeted Mode = "targeted"
	ModeFanOut   Mode = "fan_out"
)

// Event represents an observable occurrence during a generation.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Mode is the selection mode of the generation.
	Mode Mode

	// Provider is the provider being attempted. Empty for EventExhausted.
	Provider imagegate.ProviderName

	// Attempt is the position of the provider in the candidate list (1-indexed).
	Attempt int

	// Candidates is the number of providers the generation may try.
	Candidates int

	// Edit reports whether the request carried a source image.
	Edit bool

	// Model is the model that produced the image. Set for EventSuccess only.
	Model string

	// Duration is the elapsed time of the provider call.
	Duration time.Duration

	// Error contains the failure for EventAttemptFailed and EventExhausted.
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
