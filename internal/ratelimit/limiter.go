// Package ratelimit counts form submissions per requester inside a fixed
// window and blocks requesters that exceed the threshold for a cool-down
// period.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Config controls the window limiter.
type Config struct {
	// MaxAttempts allowed inside one window; attempt MaxAttempts+1 blocks.
	MaxAttempts int
	Window      time.Duration
	// BlockDuration is measured from the attempt that tripped the limit.
	// Rejected attempts during the block do not extend it.
	BlockDuration time.Duration
}

// DefaultConfig returns the limits used by the contact and enrollment forms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: time.Hour,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = def.BlockDuration
	}
	return c
}

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is the end of the current window, or of the block when blocked.
	ResetAt time.Time
	Count   int
	// FailOpen marks decisions made without consulting the record store.
	FailOpen bool
}

// RetryAfter is the wait until ResetAt, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.IsZero() || !d.ResetAt.After(now) {
		return 0
	}
	wait := d.ResetAt.Sub(now)
	return ((wait + time.Second - 1) / time.Second) * time.Second
}

// Limiter records an attempt for identifier and decides whether it may
// proceed.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (Decision, error)
}

// ErrEmptyIdentifier is logged when a request carries no usable identifier.
var ErrEmptyIdentifier = errors.New("ratelimit: empty identifier")

// Record is the per-identifier state.
type Record struct {
	WindowStart  time.Time
	Count        int
	BlockedUntil time.Time
}

// step applies one attempt to rec at now. It is shared by the in-memory
// limiter and mirrored by the Redis script.
func step(rec *Record, cfg Config, now time.Time) Decision {
	if !rec.BlockedUntil.IsZero() {
		if now.Before(rec.BlockedUntil) {
			return Decision{Allowed: false, Remaining: 0, ResetAt: rec.BlockedUntil, Count: rec.Count}
		}
		*rec = Record{}
	}

	if rec.WindowStart.IsZero() || !now.Before(rec.WindowStart.Add(cfg.Window)) {
		*rec = Record{WindowStart: now, Count: 1}
		return Decision{
			Allowed:   true,
			Remaining: cfg.MaxAttempts - 1,
			ResetAt:   now.Add(cfg.Window),
			Count:     1,
		}
	}

	rec.Count++
	if rec.Count > cfg.MaxAttempts {
		rec.BlockedUntil = now.Add(cfg.BlockDuration)
		return Decision{Allowed: false, Remaining: 0, ResetAt: rec.BlockedUntil, Count: rec.Count}
	}
	return Decision{
		Allowed:   true,
		Remaining: cfg.MaxAttempts - rec.Count,
		ResetAt:   rec.WindowStart.Add(cfg.Window),
		Count:     rec.Count,
	}
}

// expired reports whether rec no longer influences any decision.
func (r Record) expired(cfg Config, now time.Time) bool {
	if !r.BlockedUntil.IsZero() {
		return !now.Before(r.BlockedUntil)
	}
	return !now.Before(r.WindowStart.Add(cfg.Window))
}
