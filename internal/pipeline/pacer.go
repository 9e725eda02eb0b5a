package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive persistence calls
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer enforces a fixed minimum delay between calls.
// The first call never waits.
type FixedPacer struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewFixedPacer creates a pacer; delay <= 0 disables pacing
func NewFixedPacer(delay time.Duration) *FixedPacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &FixedPacer{
		// burst 1: 첫 호출만 즉시 통과, 이후는 delay 간격
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
}

// Wait blocks until the next call is allowed or ctx is done.
// rate refuses up front when the slot lies past the deadline; that refusal
// is reported as context.DeadlineExceeded.
func (p *FixedPacer) Wait(ctx context.Context) error {
	err := p.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Delay returns the configured spacing
func (p *FixedPacer) Delay() time.Duration {
	return p.delay
}
