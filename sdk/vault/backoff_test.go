package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicy_DelayBounds(t *testing.T) {
	p := DefaultBackoff()

	for attempt := 0; attempt < 6; attempt++ {
		expected := p.Base << attempt
		if expected > p.Cap {
			expected = p.Cap
		}
		lower := time.Duration(float64(expected) * 0.9)
		if lower < p.Base {
			lower = p.Base
		}
		upper := time.Duration(float64(expected) * 1.1)
		if upper > p.Cap {
			upper = p.Cap
		}

		for i := 0; i < 100; i++ {
			d := p.Delay(attempt)
			assert.GreaterOrEqual(t, d, lower, "attempt %d", attempt)
			assert.LessOrEqual(t, d, upper, "attempt %d", attempt)
			assert.GreaterOrEqual(t, d, p.Base)
			assert.LessOrEqual(t, d, p.Cap)
		}
	}
}

func TestBackoffPolicy_DelayNeverBelowBase(t *testing.T) {
	p := BackoffPolicy{Base: time.Second, Cap: 10 * time.Second, Jitter: 0.5, MaxAttempts: 3}
	for i := 0; i < 200; i++ {
		assert.GreaterOrEqual(t, p.Delay(0), p.Base)
	}
}
