package model

import (
	"context"
	"time"

	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
)

// Do runs one logical model call with bounded retries and exponential
// backoff (1s, 2s, ...). Every failure kind is retried, including malformed
// output, except a secrets detection: that error is rethrown immediately and
// never absorbed by retry logic.
func Do[T any](ctx context.Context, log *zap.Logger, attempts int, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if scerrors.IsSecretsDetected(err) {
			return zero, err
		}
		lastErr = err
		var me *scerrors.ModelError
		if scerrors.As(err, &me) {
			log.Warn("model call failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.String("kind", string(me.Kind)),
				zap.Error(me.Err))
		} else {
			log.Warn("model call failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err))
		}
	}
	return zero, lastErr
}
