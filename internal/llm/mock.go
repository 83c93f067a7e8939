package llm

import "context"

// MockProvider is a deterministic Provider for tests. Responses are returned
// in order; when exhausted, the last response repeats.
type MockProvider struct {
	Responses []string
	Err       error
	// Calls records every user prompt received.
	Calls []string
}

// Complete returns the next canned response or the configured error.
func (m *MockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	m.Calls = append(m.Calls, userPrompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	i := len(m.Calls) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}
