package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// linearModel is the JSON export of a fitted TF-IDF + logistic regression
// pipeline. Vocabulary maps an n-gram to its column; IDF and Coef are indexed
// by the same columns.
type linearModel struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Coef       []float64      `json:"coef"`
	Intercept  float64        `json:"intercept"`
	NgramMax   int            `json:"ngram_max"`
}

// LinearClassifier scores clauses with exported logistic regression weights
// over a TF-IDF representation. It needs no CGO and no runtime beyond the
// weight file.
type LinearClassifier struct {
	model linearModel
}

// NewLinearClassifier loads the exported weights from path.
func NewLinearClassifier(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier model: %w", err)
	}
	var m linearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse classifier model: %w", err)
	}
	if len(m.Vocabulary) == 0 || len(m.Coef) == 0 {
		return nil, fmt.Errorf("classifier model %s has no weights", path)
	}
	if len(m.IDF) != len(m.Coef) {
		return nil, fmt.Errorf("classifier model %s: idf has %d entries, coef has %d", path, len(m.IDF), len(m.Coef))
	}
	for gram, col := range m.Vocabulary {
		if col < 0 || col >= len(m.Coef) {
			return nil, fmt.Errorf("classifier model %s: term %q maps to column %d, want 0..%d", path, gram, col, len(m.Coef)-1)
		}
	}
	if m.NgramMax <= 0 {
		m.NgramMax = 1
	}
	return &LinearClassifier{model: m}, nil
}

// Score returns the abuse probability for a single clause.
func (c *LinearClassifier) Score(ctx context.Context, text string) (float64, error) {
	counts := make(map[int]float64)
	tokens := utils.Tokenize(text)
	for n := 1; n <= c.model.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			if col, ok := c.model.Vocabulary[gram]; ok {
				counts[col]++
			}
		}
	}

	// TF-IDF with L2 normalization, matching how the weights were fitted.
	var norm float64
	for col, tf := range counts {
		w := tf * c.model.IDF[col]
		counts[col] = w
		norm += w * w
	}
	z := c.model.Intercept
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col, w := range counts {
			z += (w / norm) * c.model.Coef[col]
		}
	}
	return sigmoid(z), nil
}

// ScoreBatch scores each clause independently.
func (c *LinearClassifier) ScoreBatch(ctx context.Context, texts []string) ([]float64, error) {
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

// Close is a no-op for LinearClassifier.
func (c *LinearClassifier) Close() error {
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
