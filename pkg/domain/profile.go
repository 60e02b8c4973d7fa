package domain

import "time"

// ExecutionProfile is a named, immutable bundle of resilience settings
// consumed by the engine. Profiles are values: copying one is cheap and safe,
// and a registered profile is never mutated afterwards.
type ExecutionProfile struct {
	// Name identifies the profile in the registry and in logs.
	Name string

	// MaxRetries is the number of additional attempts after the first
	// failure of a retryable error. Zero disables retries.
	MaxRetries int

	// Timeout bounds a single node invocation attempt. Zero means unbounded.
	Timeout time.Duration

	// RunTimeout bounds the whole run, distinct from the per-node Timeout.
	// Zero means unbounded.
	RunTimeout time.Duration

	// FailFast aborts the run on the first node failure (after retries).
	// When false, independent branches keep running and only transitive
	// dependents of the failure are skipped.
	FailFast bool

	// RetryDelay is the base pause before the first retry; it doubles on
	// each subsequent attempt. Zero retries immediately.
	RetryDelay time.Duration

	// Description is a human-readable summary for CLIs and docs.
	Description string
}
