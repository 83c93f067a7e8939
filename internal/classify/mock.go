package classify

import (
	"context"
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// abusiveCues are phrases that commonly mark one-sided clauses in Dominican
// contracts. The mock flags clauses containing them with a high score.
var abusiveCues = []string{
	"renuncia",
	"sin previo aviso",
	"sin derecho",
	"unilateralmente",
	"exime de toda responsabilidad",
	"penalidad",
}

// MockClassifier is a deterministic classifier for tests. It scores by cue
// phrase matching so the same text always gets the same score.
type MockClassifier struct {
	// Scores overrides cue matching for exact texts when set.
	Scores map[string]float64
}

// NewMockClassifier returns a classifier with deterministic cue-based scores.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Score returns the override for text if present, 0.85 when a cue phrase
// matches, and 0.1 otherwise.
func (c *MockClassifier) Score(ctx context.Context, text string) (float64, error) {
	if s, ok := c.Scores[text]; ok {
		return s, nil
	}
	folded := strings.ToLower(utils.FoldAccents(text))
	for _, cue := range abusiveCues {
		if strings.Contains(folded, cue) {
			return 0.85, nil
		}
	}
	return 0.1, nil
}

// ScoreBatch calls Score for each text.
func (c *MockClassifier) ScoreBatch(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, t := range texts {
		s, err := c.Score(ctx, t)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}

// Close is a no-op for MockClassifier.
func (c *MockClassifier) Close() error { return nil }
