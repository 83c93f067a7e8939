package models

// LLMJudgment is the structured verdict returned by the LLM clause validator.
type LLMJudgment struct {
	IsValidClause bool   `json:"is_valid_clause"`
	IsAbusive     bool   `json:"is_abusive"`
	Explanation   string `json:"explanation"`
	SuggestedFix  string `json:"suggested_fix"`
	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// DefaultJudgment returns the conservative judgment substituted when the LLM
// call fails for any reason. Analysis never aborts because one clause's
// validation failed; the clause simply carries no LLM signal.
func DefaultJudgment(reason string) *LLMJudgment {
	return &LLMJudgment{
		IsValidClause: true,
		IsAbusive:     false,
		Explanation:   "validación LLM no disponible: " + reason,
		Confidence:    0,
	}
}

// Clause is a single contractual provision extracted from a contract.
// Created by the segmenter, enriched by the classifier and validator,
// immutable once aggregated.
type Clause struct {
	// Label preserves the document-order marker ("PRIMERO", "ARTÍCULO 2",
	// or a synthetic "UNLABELED_n" when no marker was found).
	Label string `json:"label"`
	Text  string `json:"text"`
	// MLProbability is the statistical classifier's P(abusive) in [0,1].
	MLProbability float64 `json:"ml_probability"`
	// Judgment is the LLM validator's verdict; nil until validated.
	Judgment *LLMJudgment `json:"llm_judgment,omitempty"`
	// FusedRisk is the combined risk in [0,1] after score fusion.
	FusedRisk float64 `json:"fused_risk"`
	IsAbusive bool    `json:"is_abusive"`
}
