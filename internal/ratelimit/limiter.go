// Package ratelimit paces outgoing REST calls with weighted token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies one venue-wide limit plus optional per-bucket limits.
// Calls are weighted: a route with weight 5 consumes five tokens.
type Limiter struct {
	global  *rate.Limiter
	buckets sync.Map
	metrics *Metrics
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	tokensSpent     atomic.Int64
	bucketCount     atomic.Int32
}

// every converts requests per period into a rate. Callers validate that both
// are positive.
func every(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// New creates a Limiter allowing requests tokens per period, bursting up to requests.
func New(requests int, period time.Duration) *Limiter {
	return &Limiter{
		global:  rate.NewLimiter(every(requests, period), requests),
		metrics: &Metrics{},
	}
}

// Unlimited creates a Limiter with no global limit. Only bucket limits
// added with SetBucketLimit apply.
func Unlimited() *Limiter {
	return &Limiter{
		global:  rate.NewLimiter(rate.Inf, 0),
		metrics: &Metrics{},
	}
}

// SetBucketLimit adds a limit that applies only to calls in bucket, on top of the global one.
func (l *Limiter) SetBucketLimit(bucket string, requests int, period time.Duration) {
	limiter := rate.NewLimiter(every(requests, period), requests)
	if _, loaded := l.buckets.Swap(bucket, limiter); !loaded {
		l.metrics.bucketCount.Add(1)
	}
}

func (l *Limiter) bucket(name string) *rate.Limiter {
	if v, ok := l.buckets.Load(name); ok {
		return v.(*rate.Limiter)
	}
	return nil
}

// Wait blocks until weight tokens are available in bucket and globally, or ctx ends.
func (l *Limiter) Wait(ctx context.Context, bucket string, weight int) error {
	l.metrics.totalRequests.Add(1)
	if weight < 1 {
		weight = 1
	}
	if b := l.bucket(bucket); b != nil {
		if err := b.WaitN(ctx, clamp(weight, b)); err != nil {
			l.metrics.deniedRequests.Add(1)
			return fmt.Errorf("rate limit %s: %w", bucket, err)
		}
	}
	if err := l.global.WaitN(ctx, clamp(weight, l.global)); err != nil {
		l.metrics.deniedRequests.Add(1)
		return fmt.Errorf("rate limit: %w", err)
	}
	l.metrics.allowedRequests.Add(1)
	l.metrics.tokensSpent.Add(int64(weight))
	return nil
}

// Allow reports whether a call of the given weight may proceed immediately.
func (l *Limiter) Allow(bucket string, weight int) bool {
	l.metrics.totalRequests.Add(1)
	if weight < 1 {
		weight = 1
	}
	now := time.Now()
	allowed := true
	if b := l.bucket(bucket); b != nil {
		allowed = b.AllowN(now, clamp(weight, b))
	}
	if allowed {
		allowed = l.global.AllowN(now, clamp(weight, l.global))
	}
	if allowed {
		l.metrics.allowedRequests.Add(1)
		l.metrics.tokensSpent.Add(int64(weight))
	} else {
		l.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// clamp keeps a weight above the burst from failing outright; such calls
// drain the whole bucket instead.
func clamp(weight int, l *rate.Limiter) int {
	if burst := l.Burst(); weight > burst {
		return burst
	}
	return weight
}

// Metrics returns a snapshot of the current limiter statistics.
func (l *Limiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   l.metrics.totalRequests.Load(),
		AllowedRequests: l.metrics.allowedRequests.Load(),
		DeniedRequests:  l.metrics.deniedRequests.Load(),
		TokensSpent:     l.metrics.tokensSpent.Load(),
		BucketCount:     l.metrics.bucketCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	TokensSpent     int64
	BucketCount     int32
}
