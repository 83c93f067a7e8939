package segment

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
)

const rentalContract = `CONTRATO DE ALQUILER

POR CUANTO: El Propietario es dueño del inmueble ubicado en la Av. Independencia No. 42.

PRIMERO: El Propietario alquila al Inquilino el local comercial descrito arriba por un período de un año.

SEGUNDO: El Inquilino pagará la suma de RD$20,000.00 mensuales, pagaderos los primeros cinco días de cada mes.

TERCERO: El Inquilino renuncia a cualquier reclamación por vicios ocultos del inmueble.`

func TestSegmentWithMarkers(t *testing.T) {
	s := NewSegmenter(nil, 20, zap.NewNop())
	clauses := s.Segment(context.Background(), rentalContract)

	if len(clauses) != 4 {
		t.Fatalf("expected 4 clauses, got %d", len(clauses))
	}
	wantLabels := []string{"POR CUANTO", "PRIMERO", "SEGUNDO", "TERCERO"}
	for i, want := range wantLabels {
		if clauses[i].Label != want {
			t.Errorf("clause %d: label = %q, want %q", i, clauses[i].Label, want)
		}
	}
	if clauses[2].Text == "" || clauses[2].Text[:12] != "El Inquilino" {
		t.Errorf("clause 2 body = %q", clauses[2].Text)
	}
}

func TestSegmentLLMPrimary(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{
		`[{"label": "PRIMERO", "text": "El Propietario alquila el local."},
		  {"label": "SEGUNDO", "text": "El precio es RD$20,000."}]`,
	}}
	client := llm.NewClientWithProvider(mock, 1024, 0, time.Second)
	s := NewSegmenter(client, 20, zap.NewNop())

	clauses := s.Segment(context.Background(), rentalContract)
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses from LLM, got %d", len(clauses))
	}
	if clauses[0].Label != "PRIMERO" || clauses[1].Label != "SEGUNDO" {
		t.Errorf("labels = %q, %q", clauses[0].Label, clauses[1].Label)
	}
}

func TestSegmentLLMFencedResponse(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{
		"```json\n[{\"label\": \"PRIMERO\", \"text\": \"Cláusula uno.\"}]\n```",
	}}
	client := llm.NewClientWithProvider(mock, 1024, 0, time.Second)
	s := NewSegmenter(client, 20, zap.NewNop())

	clauses := s.Segment(context.Background(), rentalContract)
	if len(clauses) != 1 || clauses[0].Label != "PRIMERO" {
		t.Fatalf("unexpected clauses: %+v", clauses)
	}
}

func TestSegmentLLMFailureFallsBackToMarkers(t *testing.T) {
	mock := &llm.MockProvider{Err: errors.New("rate limited")}
	client := llm.NewClientWithProvider(mock, 1024, 0, time.Second)
	s := NewSegmenter(client, 20, zap.NewNop())

	clauses := s.Segment(context.Background(), rentalContract)
	if len(clauses) != 4 {
		t.Fatalf("expected regex fallback to find 4 clauses, got %d", len(clauses))
	}
}

func TestSegmentLLMMalformedJSONFallsBack(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{"no soy JSON"}}
	client := llm.NewClientWithProvider(mock, 1024, 0, time.Second)
	s := NewSegmenter(client, 20, zap.NewNop())

	clauses := s.Segment(context.Background(), rentalContract)
	if len(clauses) != 4 {
		t.Fatalf("expected regex fallback, got %d clauses", len(clauses))
	}
}

func TestSegmentSentenceFallback(t *testing.T) {
	s := NewSegmenter(nil, 20, zap.NewNop())
	text := "Este documento no tiene marcadores de cláusulas pero sí contenido. " +
		"Aquí hay otra oración suficientemente larga para conservarse. Corta."
	clauses := s.Segment(context.Background(), text)

	if len(clauses) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(clauses))
	}
	if clauses[0].Label != "UNLABELED_1" || clauses[1].Label != "UNLABELED_2" {
		t.Errorf("labels = %q, %q", clauses[0].Label, clauses[1].Label)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	s := NewSegmenter(nil, 20, zap.NewNop())
	if got := s.Segment(context.Background(), "   \n\t"); len(got) != 0 {
		t.Fatalf("expected no clauses for blank input, got %d", len(got))
	}
}

func TestSegmentUnlabeledLLMClauses(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{
		`[{"label": "", "text": "Cláusula sin etiqueta."}, {"label": "SEGUNDO", "text": "Otra."}]`,
	}}
	client := llm.NewClientWithProvider(mock, 1024, 0, time.Second)
	s := NewSegmenter(client, 20, zap.NewNop())

	clauses := s.Segment(context.Background(), rentalContract)
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses", len(clauses))
	}
	if clauses[0].Label != "UNLABELED_1" {
		t.Errorf("label = %q, want UNLABELED_1", clauses[0].Label)
	}
}
