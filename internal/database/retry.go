package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Retry runs fn and retries it exactly once after backoff when the failure
// looks like an upstream outage (network/timeout). Logical errors such as
// duplicate keys or missing documents surface immediately: retrying them
// cannot help and a retried insert must not run twice past its constraint.
func Retry(ctx context.Context, backoff time.Duration, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !retryable(err) {
		return err
	}

	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return err
	}

	return fn(ctx)
}

// retryable reports whether err indicates a transient upstream failure.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err) {
		return false
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)
}
