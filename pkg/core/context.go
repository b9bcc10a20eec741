// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// NewRunID returns a fresh random run id.
func NewRunID() string { return uuid.NewString() }

// WithRunID returns a context carrying id as the current run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID reports the run carried by ctx. Empty ids count as absent.
func RunID(ctx context.Context) (string, bool) {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id, id != ""
}

// EnsureRunID keeps the caller's run id or assigns a new one.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := NewRunID()
	return WithRunID(ctx, id), id
}
