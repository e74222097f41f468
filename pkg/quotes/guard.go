package quotes

import (
	"context"
	"errors"
	"time"
)

// guard runs one execution stage under its own deadline carved from ctx.
// Deadline expiry of the stage context is surfaced as a typed *TimeoutError
// so callers can tell "too slow" apart from "failed"; any other failure is
// wrapped as *StoreError. The losing operation is cancelled through its
// context.
func guard(ctx context.Context, stage string, limit time.Duration, fn func(context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	err := fn(stageCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Stage: stage, Limit: limit}
	}
	return &StoreError{Stage: stage, Err: err}
}

// guardDegrade wraps guard with the degrade policy: a timeout is swallowed
// and reported via the bool so the caller can substitute a default value and
// continue. Non-timeout failures still fail.
func guardDegrade(ctx context.Context, stage string, limit time.Duration, fn func(context.Context) error) (degraded bool, err error) {
	err = guard(ctx, stage, limit, fn)
	var te *TimeoutError
	if errors.As(err, &te) {
		return true, nil
	}
	return false, err
}
