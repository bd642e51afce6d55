package vault

import (
	"math/rand"
	"time"
)

// BackoffPolicy computes capped exponential delays with jitter. The
// same policy drives both fetch retries and refresh retries.
type BackoffPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	Jitter      float64
	MaxAttempts int
}

// DefaultBackoff returns the standard retry policy.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:        time.Second,
		Cap:         10 * time.Second,
		Jitter:      0.1,
		MaxAttempts: 3,
	}
}

// Delay returns the sleep duration before retry attempt. The result is
// min(Base*2^attempt, Cap) jittered by ±Jitter, floored at Base and
// never exceeding Cap.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			d = p.Cap
			break
		}
	}

	factor := 1 + (rand.Float64()*2-1)*p.Jitter
	jittered := time.Duration(float64(d) * factor)

	if jittered > p.Cap {
		jittered = p.Cap
	}
	if jittered < p.Base {
		jittered = p.Base
	}
	return jittered
}
