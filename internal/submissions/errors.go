package submissions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUnknownKind is returned for a form kind the pipeline does not handle.
	ErrUnknownKind = errors.New("submissions: unknown form kind")

	// ErrPersistFailed is returned when all store attempts failed.
	ErrPersistFailed = errors.New("submissions: persist failed")

	// ErrNotFound is returned when a submission lookup misses.
	ErrNotFound = errors.New("submissions: not found")

	// ErrIdempotencyConflict is returned when an idempotency key is reused
	// with a different payload.
	ErrIdempotencyConflict = errors.New("submissions: idempotency key reused with a different payload")
)

// FieldErrors maps a form field to its user-facing problems. It is the
// validation error type: user-correctable and never retried.
type FieldErrors map[string][]string

// Add appends msg for field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has reports whether field has at least one error.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Error implements error with a stable, field-sorted summary.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return "submissions: validation failed: " + strings.Join(parts, ", ")
}

// RateLimitedError reports a blocked requester.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return "submissions: rate limited until " + e.ResetAt.UTC().Format(time.RFC3339)
}

// permanentError marks a store error that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the retry policy gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsTransient classifies store failures. Validation and rate-limit errors,
// cancellation, explicitly permanent errors and Postgres integrity or syntax
// violations are fatal; anything else (network, timeouts, connection loss)
// is worth another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return false
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"), // integrity constraint violation
			strings.HasPrefix(pgErr.Code, "22"), // data exception
			strings.HasPrefix(pgErr.Code, "42"): // syntax error or access rule violation
			return false
		}
	}
	return true
}
