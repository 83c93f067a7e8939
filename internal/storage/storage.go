// Package storage defines the persistence interface for legal articles and
// contract analyses.
package storage

import (
	"context"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

// SearchRecord is one row of the article search history, kept for corpus
// tuning and auditability.
type SearchRecord struct {
	Query        string  `json:"query"`
	ResultsCount int     `json:"results_count"`
	SearchMethod string  `json:"search_method"`
	ElapsedMs    float64 `json:"elapsed_ms"`
}

// Storage defines article and analysis persistence operations.
type Storage interface {
	// Article operations
	SaveArticle(ctx context.Context, a *models.LegalArticle) error
	SaveArticles(ctx context.Context, articles []*models.LegalArticle) error
	GetArticle(ctx context.Context, id string) (*models.LegalArticle, error)
	ListArticles(ctx context.Context, onlyActive bool) ([]*models.LegalArticle, error)
	CountArticles(ctx context.Context) (int64, error)

	// Analysis operations
	SaveAnalysis(ctx context.Context, a *models.ContractAnalysis) error
	GetAnalysis(ctx context.Context, id string) (*models.ContractAnalysis, error)
	ListAnalyses(ctx context.Context, offset, limit int) ([]*models.ContractAnalysis, error)
	CountAnalyses(ctx context.Context) (int64, error)

	// Search history
	RecordSearch(ctx context.Context, rec *SearchRecord) error

	Close() error
}
