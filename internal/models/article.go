// Package models defines core data structures for legal articles, clauses,
// and contract analyses.
package models

import "time"

// LegalArticle is one statute article from the legal knowledge corpus.
// Articles are loaded once at index build time and treated as read-only
// during request handling.
type LegalArticle struct {
	ID string `json:"id" db:"id"`
	// Number is the article number within its source law (e.g. "1720").
	Number string `json:"number" db:"number"`
	// Topic is the thematic category (e.g. "alquileres", "hipotecas").
	Topic string `json:"topic" db:"topic"`
	// ArticleCode is the full article designation (e.g. "Art. 1720").
	ArticleCode string `json:"article_code" db:"article_code"`
	Content     string `json:"content" db:"content"`
	// SourceLaw is the law or code the article belongs to (e.g. "Ley 108-05",
	// "Código Civil"). Drives hierarchy-aware ranking.
	SourceLaw string   `json:"source_law" db:"source_law"`
	Keywords  []string `json:"keywords" db:"keywords"`
	// RelevanceScore is a static prior in [0,1] assigned at corpus load time.
	RelevanceScore float64   `json:"relevance_score" db:"relevance_score"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// SearchMethod identifies which retrieval leg produced a search result.
type SearchMethod string

const (
	MethodSemantic  SearchMethod = "semantic"
	MethodKeyword   SearchMethod = "keyword"
	MethodHybrid    SearchMethod = "hybrid"
	MethodHierarchy SearchMethod = "hierarchy"
)

// SearchResult is a single article hit for a query. Ephemeral, never persisted.
type SearchResult struct {
	Article         *LegalArticle `json:"article"`
	SimilarityScore float64       `json:"similarity_score"`
	SearchMethod    SearchMethod  `json:"search_method"`
	// Methods lists every leg that matched; hybrid results have both.
	Methods []SearchMethod `json:"methods,omitempty"`
}
