package extraction

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// RetryPolicy retries retryable pipeline failures with exponential
// backoff plus jitter. Terminal failures abort immediately: retrying an
// encrypted PDF or a safety refusal cannot change the outcome.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      func(ctx context.Context, d time.Duration) error
	Log        *slog.Logger
}

func NewRetryPolicy(maxRetries int, baseDelay time.Duration, log *slog.Logger) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Sleep:      sleepContext,
		Log:        log,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op up to MaxRetries+1 times and returns how many attempts it
// took alongside the final error.
func (p *RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt - 1)
			p.Log.Info("Retrying extraction",
				"attempt", attempt+1,
				"max_attempts", p.MaxRetries+1,
				"delay_ms", delay.Milliseconds(),
				"last_error", lastErr)
			if err := p.Sleep(ctx, delay); err != nil {
				return attempt, err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if !expense.IsRetryable(lastErr) {
			return attempt + 1, lastErr
		}
		if ctx.Err() != nil {
			return attempt + 1, ctx.Err()
		}
	}

	return p.MaxRetries + 1, lastErr
}

// backoff doubles the base delay per completed attempt and adds up to
// one base delay of jitter to spread concurrent retries apart.
func (p *RetryPolicy) backoff(completed int) time.Duration {
	delay := p.BaseDelay << completed
	return delay + rand.N(p.BaseDelay)
}
