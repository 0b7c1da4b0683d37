// Package poll drives long running provider jobs to a terminal state by
// checking their status on a fixed interval within a bounded attempt budget.
package poll

import "time"

// Config holds the polling budget of a job.
type Config struct {
	// MaxAttempts is the number of status checks before the job times out (default: 30).
	MaxAttempts int

	// Interval is the wait between two consecutive checks (default: 10s).
	Interval time.Duration
}

// DefaultConfig returns the default polling budget.
// - 30 attempts
// - 10 second interval
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 30,
		Interval:    10 * time.Second,
	}
}

// withDefaults replaces non-positive fields with the defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	return c
}

// Budget is the wall clock span of a job that never completes.
func (c Config) Budget() time.Duration {
	c = c.withDefaults()
	return time.Duration(c.MaxAttempts) * c.Interval
}
