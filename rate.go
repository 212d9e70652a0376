package mllp

import (
	"context"

	"golang.org/x/time/rate"
)

// newByteLimiter returns nil when limit is 0.
func newByteLimiter(bytesPerSecond int) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
}

// chunkSize is the largest write a limiter can admit at once.
func chunkSize(l *rate.Limiter, remaining int) int {
	if l == nil || remaining <= l.Burst() {
		return remaining
	}
	return l.Burst()
}

// waitN blocks until n bytes may be written or ctx ends. A wait that would
// overrun the deadline fails immediately.
func waitN(ctx context.Context, l *rate.Limiter, n int) error {
	if l == nil {
		return nil
	}
	return l.WaitN(ctx, n)
}
