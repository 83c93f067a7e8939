//go:build !cgo
// +build !cgo

package classify

import (
	"context"
	"errors"
)

// ONNXClassifier stub type when built without CGO (see onnx.go for the real
// implementation).
type ONNXClassifier struct{}

// NewONNXClassifier returns an error when built without CGO.
func NewONNXClassifier(_ string, _ int) (*ONNXClassifier, error) {
	return nil, errors.New("ONNX classifier requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Score is unreachable in non-CGO builds.
func (c *ONNXClassifier) Score(context.Context, string) (float64, error) {
	return 0, errors.New("ONNX classifier not available")
}

// ScoreBatch is unreachable in non-CGO builds.
func (c *ONNXClassifier) ScoreBatch(context.Context, []string) ([]float64, error) {
	return nil, errors.New("ONNX classifier not available")
}

// Close is a no-op.
func (c *ONNXClassifier) Close() error { return nil }
