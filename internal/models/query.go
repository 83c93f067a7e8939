package models

import "fmt"

// SearchQuery represents an article search request with optional filters.
type SearchQuery struct {
	Query string `json:"query"`
	// TopicFilter restricts results to articles whose topic contains the
	// filter (case-insensitive). Empty means no filter.
	TopicFilter string `json:"topic_filter,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
	// MinSimilarity is the semantic similarity floor in [0,1].
	MinSimilarity float64 `json:"min_similarity,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty; otherwise normalizes limits.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 5
	}
	if q.MaxResults > 50 {
		q.MaxResults = 50
	}
	if q.MinSimilarity < 0 {
		q.MinSimilarity = 0
	}
	if q.MinSimilarity > 1 {
		q.MinSimilarity = 1
	}
	return nil
}
