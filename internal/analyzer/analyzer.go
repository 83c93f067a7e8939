// Package analyzer runs the per-contract analysis pipeline: segmentation,
// dual-signal clause scoring, score fusion, and contract-level aggregation.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/classify"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// Segmenter splits contract text into ordered, labeled clauses.
type Segmenter interface {
	Segment(ctx context.Context, text string) []*models.Clause
}

// Validator returns the LLM judgment for one clause. Implementations never
// fail; they substitute the conservative default judgment instead.
type Validator interface {
	Validate(ctx context.Context, clauseText string) *models.LLMJudgment
}

// Summarizer produces the executive summary and statute citations for an
// analyzed contract. Implementations never fail; they fall back to a generic
// summary instead.
type Summarizer interface {
	Summarize(ctx context.Context, contractText string, clauses []*models.Clause) *models.LegalSummary
}

// Analyzer ties the pipeline stages together. One Analyzer serves all
// requests; each Analyze call builds its own result and shares no mutable
// state with concurrent calls.
type Analyzer struct {
	segmenter  Segmenter
	classifier classify.Classifier
	validator  Validator
	summarizer Summarizer
	weights    FusionWeights
	workers    int
	logger     *zap.Logger
}

// New creates an Analyzer. classifier and summarizer may be nil: a nil
// classifier degrades to neutral probabilities, a nil summarizer skips the
// summary stage. segmenter and validator are required.
func New(
	segmenter Segmenter,
	classifier classify.Classifier,
	validator Validator,
	summarizer Summarizer,
	cfg *config.AnalysisConfig,
	logger *zap.Logger,
) *Analyzer {
	workers := cfg.ClauseWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Analyzer{
		segmenter:  segmenter,
		classifier: classifier,
		validator:  validator,
		summarizer: summarizer,
		weights:    WeightsFromConfig(cfg),
		workers:    workers,
		logger:     logger,
	}
}

// Analyze runs the full pipeline on contractText. It never returns an error:
// segmentation failure yields a not-analyzable result, and clause-level
// failures are absorbed into conservative defaults. Only programming errors
// panic through.
func (a *Analyzer) Analyze(ctx context.Context, contractText string) *models.ContractAnalysis {
	start := time.Now()
	analysis := &models.ContractAnalysis{
		ID:        uuid.NewString(),
		CreatedAt: start,
	}

	clauses := a.segmenter.Segment(ctx, contractText)
	if len(clauses) == 0 {
		// No clauses means the text could not be analyzed. This is a
		// distinguishable state, never reported as zero risk.
		analysis.Status = models.StatusNotAnalyzable
		analysis.ExecutiveSummary = "El contrato no pudo ser analizado: no se identificaron cláusulas en el texto."
		analysis.ProcessingTime = time.Since(start)
		a.logger.Warn("contract not analyzable, no clauses extracted",
			zap.String("analysis_id", analysis.ID),
			zap.Int("text_len", len(contractText)))
		return analysis
	}

	a.scoreClauses(ctx, clauses)

	fusedRisks := make([]float64, len(clauses))
	abusiveCount := 0
	for i, c := range clauses {
		c.FusedRisk, c.IsAbusive = Fuse(c.MLProbability, c.Judgment, a.weights)
		fusedRisks[i] = c.FusedRisk
		if c.IsAbusive {
			abusiveCount++
		}
	}

	analysis.Status = models.StatusCompleted
	analysis.Clauses = clauses
	analysis.TotalClauses = len(clauses)
	analysis.AbusiveCount = abusiveCount
	analysis.RiskScore = utils.Mean(fusedRisks)
	analysis.RiskLevel = models.RiskLevelFor(analysis.RiskScore)
	analysis.Recommendations = buildRecommendations(clauses)

	if a.summarizer != nil {
		summary := a.summarizer.Summarize(ctx, contractText, clauses)
		analysis.ExecutiveSummary = summary.ExecutiveSummary
		analysis.AffectedLaws = summary.AffectedLaws
		analysis.AppliedArticles = summary.AppliedArticles
	}

	analysis.ProcessingTime = time.Since(start)
	a.logger.Info("contract analyzed",
		zap.String("analysis_id", analysis.ID),
		zap.Int("total_clauses", analysis.TotalClauses),
		zap.Int("abusive_count", analysis.AbusiveCount),
		zap.Float64("risk_score", analysis.RiskScore),
		zap.Duration("elapsed", analysis.ProcessingTime))
	return analysis
}

// scoreClauses runs the classifier and the LLM validator over every clause
// with a bounded worker pool. Clauses are independent; each worker writes
// only to its own clause, and document order is preserved because results
// land in place.
func (a *Analyzer) scoreClauses(ctx context.Context, clauses []*models.Clause) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := a.workers
	if workers > len(clauses) {
		workers = len(clauses)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a.scoreClause(ctx, clauses[i])
			}
		}()
	}
	for i := range clauses {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func (a *Analyzer) scoreClause(ctx context.Context, c *models.Clause) {
	if a.classifier != nil {
		prob, err := a.classifier.Score(ctx, c.Text)
		if err != nil {
			// Degraded mode: neutral probability, the LLM signal still counts.
			a.logger.Warn("classifier unavailable for clause, using neutral probability",
				zap.String("label", c.Label), zap.Error(err))
			prob = 0
		}
		c.MLProbability = utils.Clamp01(prob)
	}
	c.Judgment = a.validator.Validate(ctx, c.Text)
}

// buildRecommendations produces the review checklist for flagged clauses.
func buildRecommendations(clauses []*models.Clause) string {
	flagged := make([]*models.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.IsAbusive {
			flagged = append(flagged, c)
		}
	}
	if len(flagged) == 0 {
		return "No se detectaron cláusulas problemáticas. El contrato aparenta estar en orden."
	}

	out := "Se recomienda revisar las siguientes cláusulas con un abogado especializado:\n"
	for _, c := range flagged {
		out += fmt.Sprintf("  - Cláusula %s: %s\n", c.Label, utils.Truncate(c.Text, 100))
	}
	return out
}
