package models

import "time"

// AnalysisStatus distinguishes a completed analysis from one that could not be
// performed. An empty clause list is "not analyzable", never zero risk.
type AnalysisStatus string

const (
	StatusCompleted     AnalysisStatus = "completed"
	StatusNotAnalyzable AnalysisStatus = "not_analyzable"
)

// RiskLevel bands the contract risk score for reporting.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelFor returns the band for a risk score: <0.3 low, <0.7 medium, else high.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score < 0.3:
		return RiskLow
	case score < 0.7:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ContractAnalysis is the full result of analyzing one contract.
// Built once per invocation and owned exclusively by the caller.
type ContractAnalysis struct {
	ID           string         `json:"id"`
	Status       AnalysisStatus `json:"status"`
	Clauses      []*Clause      `json:"clauses"`
	TotalClauses int            `json:"total_clauses"`
	AbusiveCount int            `json:"abusive_count"`
	// RiskScore is the mean fused risk over all clauses, 0 when there are none.
	RiskScore float64   `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
	// ExecutiveSummary is the LLM-authored (or fallback) summary.
	ExecutiveSummary string `json:"executive_summary"`
	// AffectedLaws lists statute citations, each corroborated by a retrieval
	// hit in AppliedArticles when RAG is enabled.
	AffectedLaws    []string        `json:"affected_laws"`
	AppliedArticles []*SearchResult `json:"applied_articles,omitempty"`
	Recommendations string          `json:"recommendations,omitempty"`
	ProcessingTime  time.Duration   `json:"processing_time"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LegalSummary is the output of the summary generator: an executive summary
// and the statute citations backing it. When RAG is enabled every entry in
// AffectedLaws is corroborated by a hit in AppliedArticles.
type LegalSummary struct {
	ExecutiveSummary string          `json:"executive_summary"`
	AffectedLaws     []string        `json:"affected_laws"`
	AppliedArticles  []*SearchResult `json:"applied_articles,omitempty"`
	// Fallback reports that the LLM output was unavailable or failed
	// citation validation and a generic summary was substituted.
	Fallback bool `json:"fallback,omitempty"`
}
