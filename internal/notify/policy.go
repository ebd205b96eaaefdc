package notify

import (
	"context"
	"time"
)

// RetryPolicy bounds per-channel delivery attempts. Backoff doubles after
// each failure.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the configuration defaults: three attempts,
// two seconds initial backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// run executes fn under the policy, sleeping between failures. The last
// error is returned once attempts are exhausted or the context ends.
func (p RetryPolicy) run(ctx context.Context, fn func(context.Context) error) error {
	var err error
	delay := p.Backoff
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == p.attempts() {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
