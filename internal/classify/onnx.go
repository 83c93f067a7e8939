//go:build cgo
// +build cgo

package classify

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// ONNXClassifier runs an exported transformer classifier with ONNX Runtime.
// It requires CGO and the onnxruntime shared library.
type ONNXClassifier struct {
	session   *ort.AdvancedSession
	maxTokens int
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXClassifier creates an ONNX classifier. InitializeEnvironment is
// called if not already done.
func NewONNXClassifier(modelPath string, maxTokens int) (*ONNXClassifier, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	inputIDs, attentionMask := tokenizeFixed("", maxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	// Two logits: [not abusive, abusive].
	outputTensor, err := ort.NewTensor(ort.NewShape(1, 2), make([]float32, 2))
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:             session,
		maxTokens:           maxTokens,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		outputTensor:        outputTensor,
	}, nil
}

// Score returns the abuse probability via softmax over the two output logits.
func (c *ONNXClassifier) Score(ctx context.Context, text string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inputIDs, attentionMask := tokenizeFixed(text, c.maxTokens)
	copy(c.inputIDsTensor.GetData(), inputIDs)
	copy(c.attentionMaskTensor.GetData(), attentionMask)

	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	logits := c.outputTensor.GetData()
	p0 := float64(logits[0])
	p1 := float64(logits[1])
	return sigmoid(p1 - p0), nil
}

// ScoreBatch scores each clause through the single pre-allocated session.
func (c *ONNXClassifier) ScoreBatch(ctx context.Context, texts []string) ([]float64, error) {
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

// Close destroys the session and tensors.
func (c *ONNXClassifier) Close() error {
	var err error
	if c.session != nil {
		err = c.session.Destroy()
		c.session = nil
	}
	if c.inputIDsTensor != nil {
		_ = c.inputIDsTensor.Destroy()
		c.inputIDsTensor = nil
	}
	if c.attentionMaskTensor != nil {
		_ = c.attentionMaskTensor.Destroy()
		c.attentionMaskTensor = nil
	}
	if c.outputTensor != nil {
		_ = c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	return err
}

// tokenizeFixed produces padded hash-based token IDs up to maxTokens.
func tokenizeFixed(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	words := utils.Tokenize(text)
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)

	inputIDs[0] = 101 // [CLS]
	attentionMask[0] = 1

	pos := 1
	for _, word := range words {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(hashString(word) % 30000)
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = 102 // [SEP]
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask
}

func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
