// Package poll implements the bounded wait used wherever the engine waits on
// page state: a fixed interval, a maximum attempt count, and an error when the
// budget runs out.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// ErrExhausted is returned when the condition never held within the budget
var ErrExhausted = errors.New("poll budget exhausted")

// Policy bounds a poll
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Ceiling is the longest a poll under this policy can take, ignoring the
// time spent inside the checks themselves.
func (p Policy) Ceiling() time.Duration {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return p.Interval * time.Duration(p.MaxAttempts-1)
}

// Check inspects state once. It returns the observed value and whether the
// awaited condition holds. An error counts as a failed attempt.
type Check[T any] func(ctx context.Context, attempt int) (T, bool, error)

type outcome[T any] struct {
	value T
	done  bool
}

// Until runs check until it reports done. The last observed value is returned
// even on exhaustion so callers can tell partial states apart.
func Until[T any](ctx context.Context, p Policy, check Check[T]) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := retrypolicy.NewBuilder[outcome[T]]().
		HandleIf(func(o outcome[T], err error) bool {
			return err != nil || !o.done
		}).
		WithDelay(p.Interval).
		WithMaxRetries(maxAttempts - 1).
		ReturnLastFailure().
		Build()

	attempt := 0
	result, err := failsafe.With[outcome[T]](policy).WithContext(ctx).Get(func() (outcome[T], error) {
		attempt++
		value, done, err := check(ctx, attempt)
		return outcome[T]{value: value, done: done}, err
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result.value, ctxErr
	}
	if err != nil {
		return result.value, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
	}
	if !result.done {
		return result.value, fmt.Errorf("%w after %d attempts", ErrExhausted, attempt)
	}
	return result.value, nil
}
