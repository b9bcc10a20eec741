// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Backend answers search queries.
type Backend interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, query string) ([]Result, error)

// Search calls f.
func (f BackendFunc) Search(ctx context.Context, query string) ([]Result, error) {
	return f(ctx, query)
}

// StaticBackend returns three deterministic results derived from the query.
// It performs no network access.
type StaticBackend struct{}

// Search builds guide, documentation and tips results for query.
func (StaticBackend) Search(_ context.Context, query string) ([]Result, error) {
	slug := strings.ReplaceAll(strings.ToLower(query), " ", "-")
	return []Result{
		{
			Title: fmt.Sprintf("Understanding %s: A Comprehensive Guide", query),
			URL:   "https://example.com/guide/" + slug,
			Snippet: fmt.Sprintf("Learn everything about %s with this detailed guide covering "+
				"best practices, examples, and common pitfalls.", query),
		},
		{
			Title: fmt.Sprintf("%s - Official Documentation", query),
			URL:   "https://docs.example.com/" + slug,
			Snippet: fmt.Sprintf("Official documentation for %s. Includes API reference, "+
				"tutorials, and migration guides.", query),
		},
		{
			Title: fmt.Sprintf("Top 10 Tips for %s", query),
			URL:   "https://blog.example.com/tips/" + slug,
			Snippet: fmt.Sprintf("Discover the top 10 expert tips for mastering %s. "+
				"From beginners to advanced users.", query),
		},
	}, nil
}
