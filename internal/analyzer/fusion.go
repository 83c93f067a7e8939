package analyzer

import (
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// FusionWeights parameterize score fusion. The constants changed between
// versions of the system, so they are carried as configuration rather than
// buried in the formula.
type FusionWeights struct {
	// AbusiveML and AbusiveLLM weight the signals when the LLM flags the
	// clause as abusive.
	AbusiveML  float64
	AbusiveLLM float64
	// StandardML and StandardLLM weight the signals otherwise.
	StandardML  float64
	StandardLLM float64
	// MLThreshold is the classifier probability above which a clause is
	// flagged regardless of the LLM verdict.
	MLThreshold float64
}

// DefaultWeights returns the fusion weights of the current scoring policy.
func DefaultWeights() FusionWeights {
	return FusionWeights{
		AbusiveML:   0.6,
		AbusiveLLM:  0.4,
		StandardML:  0.8,
		StandardLLM: 0.2,
		MLThreshold: 0.5,
	}
}

// WeightsFromConfig builds fusion weights from the analysis config section.
func WeightsFromConfig(cfg *config.AnalysisConfig) FusionWeights {
	return FusionWeights{
		AbusiveML:   cfg.AbusiveMLWeight,
		AbusiveLLM:  cfg.AbusiveLLMWeight,
		StandardML:  cfg.StandardMLWeight,
		StandardLLM: cfg.StandardLLMWeight,
		MLThreshold: cfg.MLThreshold,
	}
}

// Fuse combines the classifier probability with the LLM judgment into a
// single risk in [0,1] and decides whether the clause is flagged.
//
// The flag uses an OR policy: either a classifier probability above the
// threshold or an LLM abusive verdict is enough to surface the clause for
// human review. A nil judgment carries no LLM signal and contributes zero
// confidence; missing or out-of-range inputs are clamped so the fused score
// is never NaN.
func Fuse(mlProb float64, judgment *models.LLMJudgment, w FusionWeights) (fusedRisk float64, isAbusive bool) {
	ml := utils.Clamp01(mlProb)

	llmAbusive := false
	confidence := 0.0
	if judgment != nil {
		llmAbusive = judgment.IsAbusive
		confidence = utils.Clamp01(judgment.Confidence)
	}

	if llmAbusive {
		fusedRisk = w.AbusiveML*ml + w.AbusiveLLM*confidence
	} else {
		fusedRisk = w.StandardML*ml + w.StandardLLM*confidence
	}
	fusedRisk = utils.Clamp01(fusedRisk)

	isAbusive = ml > w.MLThreshold || llmAbusive
	return fusedRisk, isAbusive
}
