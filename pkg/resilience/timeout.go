// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jllopis/agentcore/pkg/errors"
)

// TimeoutConfig bounds an operation.
type TimeoutConfig struct {
	// Duration is the maximum time allowed. Zero disables the bound.
	Duration time.Duration
}

// WithTimeout runs fn with a deadline derived from ctx.
// Returns errors.CodeTimeout when the deadline passes first.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func(ctx context.Context) error) error {
	_, err := WithTimeoutResult(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// WithTimeoutResult is WithTimeout for functions that return a value.
// fn keeps running in its goroutine after a timeout; it should honour ctx.
// A panic in fn is returned as a TOOL_FAILURE error.
func WithTimeoutResult[T any](ctx context.Context, config TimeoutConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if config.Duration <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.Newf(errors.CodeToolFailure, "panic: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, deadlineError(ctx, config)
	case res := <-done:
		if res.err != nil && isContextErr(res.err) && ctx.Err() != nil {
			return zero, deadlineError(ctx, config)
		}
		return res.value, res.err
	}
}

func deadlineError(ctx context.Context, config TimeoutConfig) error {
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return errors.New(errors.CodeContextLost, "operation canceled", ctx.Err())
	}
	return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
		WithContext("timeout", config.Duration.String()).
		WithRecoverable(true)
}

func isContextErr(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
