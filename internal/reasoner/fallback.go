package reasoner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"finguard/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackReasoner tries reasoners in order, skipping those with open circuits.
// It implements port.Reasoner.
type FallbackReasoner struct {
	reasoners []port.Reasoner
	circuits  []*circuitState
	names     []string
	logger    *zap.Logger
}

// NewFallbackReasoner creates a FallbackReasoner from an ordered list of reasoners and their names.
func NewFallbackReasoner(reasoners []port.Reasoner, names []string, logger *zap.Logger) *FallbackReasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	circuits := make([]*circuitState, len(reasoners))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackReasoner{
		reasoners: reasoners,
		circuits:  circuits,
		names:     names,
		logger:    logger,
	}
}

func (f *FallbackReasoner) Reason(ctx context.Context, input port.ReasonInput) (*port.Judgment, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, r := range f.reasoners {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.logger.Debug("reasoner.FallbackReasoner: skipping provider, circuit open",
				zap.String("provider", f.names[i]), zap.Time("reset_at", resetAt))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := r.Reason(ctx, input)
		if err == nil {
			return out, nil
		}

		f.logger.Warn("reasoner.FallbackReasoner: provider failed",
			zap.String("provider", f.names[i]), zap.Error(err))
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all reasoners rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all reasoners failed: %w", lastErr)
}
