package limits

import (
	"math"
	"sync/atomic"
	"time"

	"anymouse-hq/anymouse/pkg/config"

	"golang.org/x/time/rate"
)

// Rejection reasons.
const (
	ReasonPerSecond  = "requests_per_second"
	ReasonPerMinute  = "requests_per_minute"
	ReasonConcurrent = "concurrent_requests"
)

// CheckResult is the outcome of admitting one request.
type CheckResult struct {
	Allowed bool

	// Reason names the exceeded limit when Allowed is false.
	Reason string

	// Limit and Remaining describe the tightest request-rate limit.
	Limit     int64
	Remaining int64

	// RetryAfter is how long until the request would be admitted.
	RetryAfter time.Duration
}

// Limiter enforces the limits of a single caller.
type Limiter struct {
	perSecond  *rate.Limiter
	perMinute  *rate.Limiter
	concurrent *ConcurrentLimiter

	lastUsed atomic.Int64
}

// NewLimiter builds a Limiter from cfg. Zero limits are not enforced.
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	l := &Limiter{}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RequestsPerSecond*2))
		}
		l.perSecond = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.RequestsPerMinute > 0 {
		l.perMinute = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), cfg.RequestsPerMinute)
	}
	if cfg.MaxConcurrent > 0 {
		l.concurrent = NewConcurrentLimiter(cfg.MaxConcurrent)
	}
	l.touch(time.Now())
	return l
}

// Allow admits one request at now. Both buckets are charged or neither is.
// A caller admitted with a concurrency cap must call Done when finished.
func (l *Limiter) Allow(now time.Time) *CheckResult {
	l.touch(now)

	var reservations []*rate.Reservation
	cancel := func() {
		for _, r := range reservations {
			r.CancelAt(now)
		}
	}
	for _, b := range []struct {
		lim    *rate.Limiter
		reason string
	}{{l.perSecond, ReasonPerSecond}, {l.perMinute, ReasonPerMinute}} {
		if b.lim == nil {
			continue
		}
		r := b.lim.ReserveN(now, 1)
		if !r.OK() {
			cancel()
			return &CheckResult{Reason: b.reason, Limit: int64(b.lim.Burst())}
		}
		if d := r.DelayFrom(now); d > 0 {
			r.CancelAt(now)
			cancel()
			return &CheckResult{Reason: b.reason, Limit: int64(b.lim.Burst()), RetryAfter: d}
		}
		reservations = append(reservations, r)
	}

	if l.concurrent != nil && !l.concurrent.Acquire() {
		cancel()
		return &CheckResult{Reason: ReasonConcurrent, Limit: l.concurrent.Limit(), RetryAfter: time.Second}
	}

	res := &CheckResult{Allowed: true, Limit: -1, Remaining: -1}
	if b := l.tightest(); b != nil {
		res.Limit = int64(b.Burst())
		res.Remaining = int64(math.Max(0, math.Floor(b.TokensAt(now))))
	}
	return res
}

// Done releases the concurrency slot taken by an admitted request.
func (l *Limiter) Done() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// InFlight returns the number of admitted, unfinished requests.
func (l *Limiter) InFlight() int64 {
	if l.concurrent == nil {
		return 0
	}
	return l.concurrent.Current()
}

// tightest is the bucket reported in X-RateLimit headers.
func (l *Limiter) tightest() *rate.Limiter {
	if l.perMinute != nil {
		return l.perMinute
	}
	return l.perSecond
}

func (l *Limiter) touch(now time.Time) {
	l.lastUsed.Store(now.UnixNano())
}

func (l *Limiter) idleSince() time.Time {
	return time.Unix(0, l.lastUsed.Load())
}
