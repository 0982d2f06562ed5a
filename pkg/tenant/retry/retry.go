package retry

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Policy retries an operation a fixed number of times with a fixed delay.
// There is no backoff: provisioning calls are cheap to repeat and the attempt
// cap keeps total latency bounded.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	sleep       func(time.Duration)
}

func NewPolicy(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		sleep:       time.Sleep,
	}
}

// WithSleep replaces the delay function, for deterministic tests.
func (p Policy) WithSleep(sleep func(time.Duration)) Policy {
	p.sleep = sleep
	return p
}

// Do runs fn until it succeeds or the attempt cap is reached, returning the
// last error. The sleep between attempts is not cancellable mid-wait; ctx is
// only consulted between attempts.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		log.Warn("retryable operation failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sleep(p.Delay)
	}
	return err
}
