package retrypolicy

import "time"

// Policy computes when a failed stage becomes eligible for another attempt and
// when a document has exhausted its retry budget. The delay doubles with every
// failed attempt and is capped at Max.
type Policy struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// Default mirrors the repository's default recovery configuration.
func Default() Policy {
	return Policy{
		Base:        15 * time.Minute,
		Max:         6 * time.Hour,
		MaxAttempts: 5,
	}
}

// NextRetryAt returns the earliest time a document that has now failed
// retryCount times may be retried: now + min(Base << (retryCount-1), Max).
func (p Policy) NextRetryAt(now time.Time, retryCount int) time.Time {
	return now.Add(p.Delay(retryCount))
}

// Delay returns the backoff window after retryCount failures.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	shift := uint(retryCount - 1)
	// Guard against overflow for absurd retry counts; the cap applies anyway.
	if shift > 32 {
		return p.Max
	}
	delay := p.Base << shift
	if delay > p.Max || delay <= 0 {
		return p.Max
	}
	return delay
}

// Exhausted reports whether a document with the given retry count is
// permanently stuck and must be excluded from recovery sweeps.
func (p Policy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxAttempts
}
