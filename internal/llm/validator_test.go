package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantNil     bool
		wantAbusive bool
		wantConf    float64
	}{
		{
			name:        "valid judgment",
			raw:         `{"is_valid_clause": true, "is_abusive": true, "explanation": "renuncia de derechos", "suggested_fix": "", "confidence": 0.9}`,
			wantAbusive: true,
			wantConf:    0.9,
		},
		{
			name:        "fenced judgment",
			raw:         "```json\n{\"is_valid_clause\": true, \"is_abusive\": false, \"explanation\": \"ok\", \"suggested_fix\": \"\", \"confidence\": 0.7}\n```",
			wantAbusive: false,
			wantConf:    0.7,
		},
		{
			name:     "confidence clamped",
			raw:      `{"is_valid_clause": true, "is_abusive": false, "explanation": "", "suggested_fix": "", "confidence": 1.8}`,
			wantConf: 1.0,
		},
		{
			name:    "not json",
			raw:     "la cláusula parece abusiva",
			wantNil: true,
		},
		{
			name:    "missing required field",
			raw:     `{"is_valid_clause": true, "explanation": "x", "confidence": 0.5}`,
			wantNil: true,
		},
		{
			name:    "empty response",
			raw:     "",
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, errs := ParseJudgment(tt.raw)
			if tt.wantNil {
				if j != nil {
					t.Fatalf("expected nil judgment, got %+v", j)
				}
				if len(errs) == 0 {
					t.Error("expected validation errors")
				}
				return
			}
			if j == nil {
				t.Fatalf("unexpected nil judgment, errs = %v", errs)
			}
			if j.IsAbusive != tt.wantAbusive {
				t.Errorf("IsAbusive = %v, want %v", j.IsAbusive, tt.wantAbusive)
			}
			if j.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", j.Confidence, tt.wantConf)
			}
		})
	}
}

func TestParseJudgment_RepairsInvalidEscapes(t *testing.T) {
	raw := `{"is_valid_clause": true, "is_abusive": true, "explanation": "patrón \d+ inválido", "suggested_fix": "", "confidence": 0.6}`
	j, errs := ParseJudgment(raw)
	if j == nil {
		t.Fatalf("expected repaired parse, errs = %v", errs)
	}
	if !j.IsAbusive {
		t.Error("IsAbusive lost in repair")
	}
}

func TestValidator_FailureYieldsDefault(t *testing.T) {
	provider := &MockProvider{Err: errors.New("network down")}
	client := NewClientWithProvider(provider, 1024, 0.2, time.Second)
	v := NewValidator(client, zap.NewNop())

	j := v.Validate(context.Background(), "PRIMERO: cláusula de prueba")
	if j == nil {
		t.Fatal("default judgment expected, got nil")
	}
	if !j.IsValidClause || j.IsAbusive || j.Confidence != 0 {
		t.Errorf("not the conservative default: %+v", j)
	}
	if j.Explanation == "" {
		t.Error("default judgment should describe the failure")
	}
}

func TestValidator_NilClient(t *testing.T) {
	v := NewValidator(nil, zap.NewNop())
	j := v.Validate(context.Background(), "texto")
	if j == nil || j.IsAbusive {
		t.Errorf("nil client should yield conservative default, got %+v", j)
	}
}

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"{\"a\":1}", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`}, // truncated: opening fence only
	}
	for _, tt := range tests {
		if got := StripMarkdownFences(tt.in); got != tt.want {
			t.Errorf("StripMarkdownFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
