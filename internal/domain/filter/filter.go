// Package filter defines client-side filtering of fetched mentions.
package filter

import (
	"context"
	"time"
)

// Subject is the view of a mention that filter expressions can see.
type Subject struct {
	ID        string
	ProjectID string
	Source    string
	Subreddit string
	Title     string
	Body      string
	URL       string
	Author    string
	Score     int64
	Status    string
	Keyword   string
	CreatedAt time.Time
}

// Predicate reports whether a subject passes a compiled filter.
type Predicate interface {
	Match(ctx context.Context, s Subject) (bool, error)
}

// Evaluator compiles filter expressions into predicates.
type Evaluator interface {
	// Validate checks an expression without keeping the compiled form.
	Validate(expr string) error
	// Compile returns a reusable predicate for expr.
	Compile(expr string) (Predicate, error)
}

// Apply returns the items whose subject matches p, preserving order. The first
// evaluation error aborts the filter.
func Apply[T any](ctx context.Context, p Predicate, items []T, subject func(T) Subject) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := p.Match(ctx, subject(item))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}
