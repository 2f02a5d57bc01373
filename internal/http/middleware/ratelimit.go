package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/internal/observability/metrics"
	"github.com/wolfman30/childcare-site/internal/ratelimit"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

// ThrottleConfig configures the per-IP API throttle.
type ThrottleConfig struct {
	Limiter ratelimit.Limiter
	Logger  *logging.Logger
	Metrics *metrics.FormMetrics
	Now     func() time.Time
}

// Throttle rejects clients that exceed the limiter with 429 Too Many
// Requests. It expects chi's RealIP to have set RemoteAddr. Limiter errors
// let the request through.
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next http.Handler) http.Handler {
		if cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := cfg.Limiter.Allow(r.Context(), "api:"+remoteIP(r))
			if err != nil {
				cfg.Logger.Warn("api throttle unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			ratelimit.SetHeaders(w, decision, cfg.Now())
			if !decision.Allowed {
				cfg.Metrics.ObserveRateLimited("api")
				cfg.Logger.Warn("api request throttled", "path", r.URL.Path, "remote_ip", remoteIP(r))
				lang := locale.CodeFromContext(r.Context())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": locale.Message(lang, locale.MsgRateLimited),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
