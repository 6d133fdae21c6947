package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// withDefaults fills every unset field from DefaultPolicy except
// MaxElapsedTime, where zero means no limit.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	return p
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	exp.MaxElapsedTime = p.MaxElapsedTime

	return backoff.WithMaxRetries(backoff.WithContext(exp, ctx), uint64(p.MaxAttempts-1))
}

// Delay is the nominal wait before retry number attempt, ignoring jitter.
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.InitialInterval) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(d)
}
