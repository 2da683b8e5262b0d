package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/brain-product-parser/internal/driver"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/internal/pacing"
)

// Policy is shared by every network-facing step of a run.
type Policy struct {
	MaxAttempts int
	// Backoff is paused after any failed attempt except the last one,
	// whether it timed out or failed otherwise.
	Backoff pacing.Interval
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     pacing.Between(1*time.Second, 4*time.Second),
	}
}

// Action performs one side-effecting browser step. attempt starts at 1.
type Action func(ctx context.Context, attempt int) error

type Navigator struct {
	policy  Policy
	pacer   pacing.Pacer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewNavigator(policy Policy, pacer pacing.Pacer, logger *slog.Logger, m *metrics.Metrics) *Navigator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Navigator{
		policy:  policy,
		pacer:   pacer,
		logger:  logger.With("component", "navigator"),
		metrics: m,
	}
}

func (n *Navigator) Policy() Policy {
	return n.policy
}

// Attempt runs action until it succeeds or the policy is exhausted. Failures
// are logged and reported only through the returned bool.
func (n *Navigator) Attempt(ctx context.Context, op string, action Action) bool {
	for attempt := 1; attempt <= n.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			n.logger.Warn("operation cancelled", "op", op, "attempt", attempt, "error", ctx.Err())
			return false
		}

		err := run(ctx, attempt, action)
		if err == nil {
			n.metrics.IncAttempt(op, "success")
			n.logger.Info("operation succeeded", "op", op, "attempt", attempt)
			return true
		}

		kind := driver.Kind(err)
		n.metrics.IncAttempt(op, kind)
		if kind == "timeout" {
			n.logger.Error("operation timed out", "op", op, "attempt", attempt, "error", err)
		} else {
			n.logger.Error("operation failed", "op", op, "attempt", attempt, "error", err)
		}

		if attempt == n.policy.MaxAttempts {
			break
		}
		if err := n.pacer.Pause(ctx, n.policy.Backoff); err != nil {
			n.logger.Warn("backoff interrupted", "op", op, "error", err)
			return false
		}
	}

	n.logger.Error("operation gave up", "op", op, "attempts", n.policy.MaxAttempts)
	return false
}

func run(ctx context.Context, attempt int, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx, attempt)
}
