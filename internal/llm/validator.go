package llm

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// Validator asks the LLM for a structured judgment on a single clause.
type Validator struct {
	client *Client
	logger *zap.Logger
}

// NewValidator creates a clause validator. client may be nil, in which case
// every Validate call returns the conservative default judgment.
func NewValidator(client *Client, logger *zap.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

const validatorSystemPrompt = `Eres un abogado experto en derecho contractual dominicano.
Analiza la cláusula contractual que se te presenta y emite un juicio.

Responde SOLO con un objeto JSON válido con exactamente estos campos:
{
  "is_valid_clause": true|false,
  "is_abusive": true|false,
  "explanation": "explicación breve del juicio",
  "suggested_fix": "redacción corregida sugerida, o cadena vacía",
  "confidence": 0.0
}
Sin prosa, sin markdown, nada fuera del JSON. confidence es tu confianza en [0,1].`

// Validate returns the LLM's judgment for clauseText. It never returns an
// error: network failures, malformed JSON, and missing fields all yield the
// conservative default judgment with the failure described. These are
// recovered conditions, not errors to propagate.
func (v *Validator) Validate(ctx context.Context, clauseText string) *models.LLMJudgment {
	if v.client == nil {
		return models.DefaultJudgment("cliente LLM no configurado")
	}

	raw, err := v.client.Complete(ctx, validatorSystemPrompt, "Cláusula:\n"+clauseText)
	if err != nil {
		v.logger.Warn("clause validation LLM call failed", zap.Error(err))
		return models.DefaultJudgment(err.Error())
	}

	judgment, verrs := ParseJudgment(raw)
	if judgment == nil {
		for _, ve := range verrs {
			v.logger.Warn("clause validation response invalid",
				zap.String("field", ve.Field), zap.String("message", ve.Message))
		}
		return models.DefaultJudgment("respuesta LLM con formato inválido")
	}
	return judgment
}

// rawJudgment uses pointer fields so that missing required keys are
// distinguishable from explicit false/zero values.
type rawJudgment struct {
	IsValidClause *bool    `json:"is_valid_clause"`
	IsAbusive     *bool    `json:"is_abusive"`
	Explanation   string   `json:"explanation"`
	SuggestedFix  string   `json:"suggested_fix"`
	Confidence    *float64 `json:"confidence"`
}

// ParseJudgment parses and validates a raw LLM judgment response.
// Markdown fences are stripped and invalid JSON escapes repaired before
// parsing. Returns nil and the validation errors when the response cannot
// be accepted.
func ParseJudgment(raw string) (*models.LLMJudgment, []ValidationError) {
	var errs []ValidationError

	raw = StripMarkdownFences(raw)

	var rj rawJudgment
	if err := json.Unmarshal([]byte(raw), &rj); err != nil {
		fixed := FixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &rj); err2 != nil {
			errs = append(errs, ValidationError{Field: "json_parse", Message: err.Error()})
			return nil, errs
		}
	}

	if rj.IsValidClause == nil {
		errs = append(errs, ValidationError{Field: "is_valid_clause", Message: "required field missing"})
	}
	if rj.IsAbusive == nil {
		errs = append(errs, ValidationError{Field: "is_abusive", Message: "required field missing"})
	}
	if rj.Confidence == nil {
		errs = append(errs, ValidationError{Field: "confidence", Message: "required field missing"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &models.LLMJudgment{
		IsValidClause: *rj.IsValidClause,
		IsAbusive:     *rj.IsAbusive,
		Explanation:   rj.Explanation,
		SuggestedFix:  rj.SuggestedFix,
		Confidence:    utils.Clamp01(*rj.Confidence),
	}, nil
}
