package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnTengye/lexiguide/pkg/logger"
)

// callAI runs one AI capability call under its own deadline.
// Panics and deadline expiry come back as an *AICallError like any other failure.
func callAI(ctx context.Context, op string, timeout time.Duration, fn func(ctx context.Context) error) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = aiError(op, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			logger.Warn(ctx, "ai call failed", "op", op, "error", err, "latency_ms", time.Since(start).Milliseconds())
			return
		}
		logger.Debug(ctx, "ai call completed", "op", op, "latency_ms", time.Since(start).Milliseconds())
	}()

	if err := fn(ctx); err != nil {
		if timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return aiError(op, fmt.Errorf("timed out after %s", timeout))
		}
		return aiError(op, err)
	}
	return nil
}

// errorText is the human-readable failure shown next to a stage
func errorText(err error) string {
	var callErr *AICallError
	if errors.As(err, &callErr) {
		return callErr.Err.Error()
	}
	return err.Error()
}
