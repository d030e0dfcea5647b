package reasoner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"finguard/internal/domain"
	"finguard/internal/port"
)

// Bounded wraps a reasoner with a per-attempt timeout and a bounded number
// of attempts. Only transient failures are retried.
type Bounded struct {
	inner       port.Reasoner
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewBounded returns a Bounded reasoner. maxAttempts below 1 means one attempt.
func NewBounded(inner port.Reasoner, timeout time.Duration, maxAttempts int, logger *zap.Logger) *Bounded {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bounded{inner: inner, timeout: timeout, maxAttempts: maxAttempts, backoff: 500 * time.Millisecond, logger: logger}
}

// WithBackoff sets the initial pause between attempts. Later pauses grow
// exponentially.
func (b *Bounded) WithBackoff(d time.Duration) *Bounded {
	b.backoff = d
	return b
}

// WithRateLimit caps provider calls at rps per second across all callers.
// A non-positive rps leaves calls unlimited.
func (b *Bounded) WithRateLimit(rps float64, burst int) *Bounded {
	if rps <= 0 {
		b.limiter = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

func (b *Bounded) Reason(ctx context.Context, input port.ReasonInput) (*port.Judgment, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.backoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(b.maxAttempts-1)), ctx)

	var (
		judgment *port.Judgment
		attempt  int
	)
	op := func() error {
		attempt++
		j, err := b.attempt(ctx, input)
		if err == nil {
			judgment = j
			return nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return backoff.Permanent(err)
		}
		b.logger.Debug("reasoner.Bounded: attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", b.maxAttempts), zap.Error(err))
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReasonerUnavailable, err)
	}
	return judgment, nil
}

func (b *Bounded) attempt(ctx context.Context, input port.ReasonInput) (*port.Judgment, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.inner.Reason(ctx, input)
}
