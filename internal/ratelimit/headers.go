package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// SetHeaders writes the X-RateLimit-* headers for d, plus Retry-After when
// the attempt was refused.
func SetHeaders(w http.ResponseWriter, d Decision, now time.Time) {
	h := w.Header()
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
	if d.Allowed {
		return
	}
	secs := int(d.RetryAfter(now) / time.Second)
	if secs < 1 {
		secs = 1
	}
	h.Set("Retry-After", strconv.Itoa(secs))
}
