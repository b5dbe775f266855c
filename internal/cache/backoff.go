package cache

import (
	"time"
)

// Policy is a pure reconnect backoff policy: a function of the attempt count
// and the total elapsed downtime, independent of the transport binding.
type Policy struct {
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the per-attempt delay.
	MaxDelay time.Duration

	// MaxAttempts bounds retry attempts. Zero means unbounded.
	MaxAttempts int

	// MaxElapsed is the hard ceiling on total retry time. Zero means unbounded.
	MaxElapsed time.Duration
}

// DefaultPolicy returns the reconnect policy used for the remote cache tier.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  10,
		MaxElapsed:   5 * time.Minute,
	}
}

// Next returns the delay to wait before the given retry attempt (1-based).
// ok=false means give up: the tier is treated as permanently degraded until
// external intervention.
func (p Policy) Next(attempt int, elapsed time.Duration) (time.Duration, bool) {
	if attempt < 1 {
		attempt = 1
	}
	if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
		return 0, false
	}
	if p.MaxElapsed > 0 && elapsed >= p.MaxElapsed {
		return 0, false
	}

	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay, true
}
