// Package search provides the retrieval capability consumed by the
// retrieval-augmented answer builder: a web search client returning
// normalised {title, url, snippet} records, plus deterministic fallback
// source lists for when retrieval fails.
package search

import "context"

// Source is one normalised retrieval result.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider returns up to topK sources for a query, ordered by relevance.
type Provider interface {
	Search(ctx context.Context, query string, topK int) ([]Source, error)
}
