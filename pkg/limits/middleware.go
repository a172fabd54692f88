package limits

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"anymouse-hq/anymouse/pkg/api/types"
	"anymouse-hq/anymouse/pkg/security/auth"
)

// Metrics counts rejected requests.
type Metrics interface {
	RecordRateLimited(reason string)
}

// Key returns the caller identity for r.
func (m *Manager) Key(r *http.Request) string {
	if m.cfg.KeyBy == "client" {
		if id := auth.ClientID(r.Context()); id != "" {
			return "client:" + id
		}
	}
	return "ip:" + auth.ClientIP(r)
}

// Middleware rejects requests over the caller's limits with 429. It must run
// after authentication for client keys to apply. metrics may be nil.
func (m *Manager) Middleware(metrics Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.Key(r)
			l := m.Limiter(key)
			res := l.Allow(time.Now())
			if res.Limit >= 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			}
			if !res.Allowed {
				if metrics != nil {
					metrics.RecordRateLimited(res.Reason)
				}
				m.logger.Warn("rate limit exceeded",
					"reason", res.Reason,
					"client_id", auth.ClientID(r.Context()),
					"source_ip", auth.ClientIP(r),
				)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(res.RetryAfter)))
				types.NewErrorResponse(
					fmt.Sprintf("Rate limit exceeded (%s)", res.Reason),
					types.ErrorTypeRateLimit, "", types.CodeRateLimited,
				).Write(w)
				return
			}
			defer l.Done()
			if res.Remaining >= 0 {
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
