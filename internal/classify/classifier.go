// Package classify scores contract clauses with a pre-fitted abuse model.
package classify

import (
	"context"
	"fmt"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
)

// Classifier returns the probability in [0,1] that a clause is abusive.
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
	ScoreBatch(ctx context.Context, texts []string) ([]float64, error)
	Close() error
}

// New creates the classifier backend selected by cfg.
func New(cfg *config.ClassifierConfig) (Classifier, error) {
	switch cfg.Backend {
	case "linear", "":
		return NewLinearClassifier(cfg.ModelPath)
	case "onnx":
		return NewONNXClassifier(cfg.ModelPath, cfg.MaxTokens)
	case "mock":
		return NewMockClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}
