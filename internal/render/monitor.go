// Package render waits for the host's render queue to drain.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailies/internal/logging"
)

// StatusSource reports whether a render is still running.
type StatusSource interface {
	IsRenderingInProgress(ctx context.Context) (bool, error)
}

// Outcome is the terminal state observed by Wait.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// CompletedMessage is printed when the render queue drains.
const CompletedMessage = "Export completed!"

// Options tune the polling loop.
type Options struct {
	// Interval between status polls. Defaults to one second.
	Interval time.Duration
	// MaxWait bounds the whole wait. Zero waits forever.
	MaxWait time.Duration
	Logger  *slog.Logger
}

// Wait polls src until rendering stops, MaxWait elapses or ctx ends.
// The first poll happens immediately.
func Wait(ctx context.Context, src StatusSource, opts Options) (Outcome, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var deadline <-chan time.Time
	if opts.MaxWait > 0 {
		timer := time.NewTimer(opts.MaxWait)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	polls := 0
	for {
		busy, err := src.IsRenderingInProgress(ctx)
		polls++
		if err != nil {
			return "", fmt.Errorf("render status: %w", err)
		}
		if !busy {
			logging.WithContext(ctx, logger).Info("render finished",
				logging.Int("polls", polls),
				logging.Duration("elapsed", time.Since(start)),
			)
			return OutcomeCompleted, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			logging.WarnWithContext(logging.WithContext(ctx, logger), "render wait limit reached", "render_timeout",
				logging.Int("polls", polls),
				logging.Duration("max_wait", opts.MaxWait),
				logging.String(logging.FieldErrorHint, "raise monitor.max_wait_seconds or check the host render queue"),
				logging.String(logging.FieldImpact, "render left running on the host"),
			)
			return OutcomeTimedOut, nil
		case <-ticker.C:
		}
	}
}
