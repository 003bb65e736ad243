package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

type retrying struct {
	inner Provider
	cfg   RetryConfig
	log   *zap.Logger
}

// WithRetry retries transient failures with jittered exponential backoff.
// Invalid replies get one extra attempt. MaxAttempts below one means one.
func WithRetry(p Provider, cfg RetryConfig, log *zap.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &retrying{inner: p, cfg: cfg, log: log}
}

func (r *retrying) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	reasked := false
	for attempt := 1; ; attempt++ {
		c, err := r.inner.Complete(ctx, p)
		if err == nil {
			return c, nil
		}

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if reasked {
				return nil, err
			}
			reasked = true
		}
		if attempt >= r.cfg.MaxAttempts {
			return nil, err
		}

		wait := r.cfg.delay(attempt, err)
		r.log.Debug("retrying llm request",
			zap.String("purpose", string(p.Purpose)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *retrying) Model() string { return r.inner.Model() }

// delay is the wait after the given 1-based attempt. A vendor's
// Retry-After wins over the computed backoff.
func (c RetryConfig) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(c.InitialWait) * math.Pow(mult, float64(attempt-1))
	if c.MaxWait > 0 {
		wait = math.Min(wait, float64(c.MaxWait))
	}
	// ±20% jitter.
	wait *= 1 + 0.2*(2*rand.Float64()-1)
	return time.Duration(math.Max(wait, 0))
}
