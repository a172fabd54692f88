// Package limits throttles API callers.
//
// Each caller, identified by its authenticated client ID or its source IP,
// gets a Limiter combining up to three limits:
//
//   - a per-second token bucket with a burst allowance
//   - a per-minute token bucket
//   - a cap on in-flight requests
//
// Token buckets come from golang.org/x/time/rate. A Manager creates limiters
// on first use and evicts the state of callers idle for longer than the
// configured TTL.
//
// # Usage
//
//	m := limits.NewManager(cfg.Security.RateLimit)
//	defer m.Close()
//	mux.Handle("/v1/anonymize", m.Middleware(metrics)(handler))
//
// Rejected requests get 429 with Retry-After and X-RateLimit-* headers.
// Zero limits are not enforced.
package limits
