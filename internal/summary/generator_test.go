package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/index"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

const rentalContract = `CONTRATO DE ARRENDAMIENTO. PRIMERO: El Propietario alquila al Inquilino un local comercial.`

func analyzedClauses() []*models.Clause {
	return []*models.Clause{
		{Label: "PRIMERO", Text: "El Propietario alquila al Inquilino un local comercial.", FusedRisk: 0.1},
		{
			Label:     "SEGUNDO",
			Text:      "El Propietario podrá aumentar el precio del alquiler en cualquier momento sin previo aviso.",
			FusedRisk: 0.87,
			IsAbusive: true,
		},
	}
}

func testConfigs() (*config.AnalysisConfig, *config.SearchConfig) {
	full := &config.Config{}
	config.ApplyDefaults(full)
	full.Analysis.RAGEnabled = true
	return &full.Analysis, &full.Search
}

func buildTestIndex(t *testing.T) *index.ArticleIndex {
	t.Helper()
	_, searchCfg := testConfigs()
	ai := index.NewArticleIndex(searchCfg, zap.NewNop())
	articles := []*models.LegalArticle{
		{
			ID: "a1", Number: "3", Topic: "alquileres", ArticleCode: "Art. 3",
			Content:   "El propietario no puede aumentar el precio del alquiler sin autorización del Control de Alquileres.",
			SourceLaw: "Ley 108-05", Keywords: []string{"alquiler", "aumento", "precio"},
			RelevanceScore: 0.9, IsActive: true,
		},
		{
			ID: "a2", Number: "1720", Topic: "alquileres", ArticleCode: "Art. 1720",
			Content:   "El arrendador está obligado a entregar la cosa en buen estado de reparaciones.",
			SourceLaw: "Código Civil", Keywords: []string{"arrendador", "reparaciones"},
			RelevanceScore: 0.7, IsActive: true,
		},
	}
	if err := ai.Build(context.Background(), articles); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ai.Close() })
	return ai
}

func newTestGenerator(t *testing.T, provider llm.Provider, idx *index.ArticleIndex) *Generator {
	t.Helper()
	analysisCfg, searchCfg := testConfigs()
	var client *llm.Client
	if provider != nil {
		client = llm.NewClientWithProvider(provider, 1024, 0.2, time.Second)
	}
	return NewGenerator(client, idx, analysisCfg, searchCfg, zap.NewNop())
}

func TestDetectContractType(t *testing.T) {
	tests := []struct {
		text string
		want ContractType
	}{
		{"contrato de arrendamiento entre el inquilino y la propietaria", TypeRental},
		{"la señora consiente en gravar el inmueble con una hipoteca", TypeMortgage},
		{"contrato de compraventa entre vendedor y comprador", TypeSale},
		{"el empleador pagará al trabajador un salario mensual", TypeLabor},
		{"acuerdo de confidencialidad entre las partes", TypeGeneral},
		{"", TypeGeneral},
		{"CONTRATO DE ALQUILER", TypeRental}, // case and accents folded
	}
	for _, tt := range tests {
		if got := DetectContractType(tt.text); got != tt.want {
			t.Errorf("DetectContractType(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestGenericLawsReturnsCopy(t *testing.T) {
	laws := GenericLaws(TypeRental)
	if len(laws) == 0 {
		t.Fatal("rental fallback laws must not be empty")
	}
	laws[0] = "mutated"
	if GenericLaws(TypeRental)[0] == "mutated" {
		t.Error("GenericLaws must return a copy")
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		wantSum string
	}{
		{
			name:    "valid",
			raw:     `{"executive_summary": "resumen", "affected_laws": ["Ley 108-05 - Art. 3"]}`,
			wantSum: "resumen",
		},
		{
			name:    "fenced",
			raw:     "```json\n{\"executive_summary\": \"ok\", \"affected_laws\": []}\n```",
			wantSum: "ok",
		},
		{
			name:    "missing laws key",
			raw:     `{"executive_summary": "resumen"}`,
			wantNil: true,
		},
		{
			name:    "empty summary",
			raw:     `{"executive_summary": "  ", "affected_laws": []}`,
			wantNil: true,
		},
		{
			name:    "not json",
			raw:     "el contrato es riesgoso",
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, errs := parseSummary(tt.raw)
			if tt.wantNil {
				if resp != nil {
					t.Fatalf("expected nil, got %+v", resp)
				}
				if len(errs) == 0 {
					t.Error("expected validation errors")
				}
				return
			}
			if resp == nil {
				t.Fatalf("unexpected nil, errs = %v", errs)
			}
			if resp.ExecutiveSummary != tt.wantSum {
				t.Errorf("summary = %q, want %q", resp.ExecutiveSummary, tt.wantSum)
			}
		})
	}
}

func TestSummarizeGroundedCitationsAccepted(t *testing.T) {
	provider := &llm.MockProvider{Responses: []string{
		`{"executive_summary": "El contrato contiene una cláusula de aumento unilateral contraria al Art. 3 de la Ley 108-05.", "affected_laws": ["Ley 108-05 - Art. 3"]}`,
	}}
	g := newTestGenerator(t, provider, buildTestIndex(t))

	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if got.Fallback {
		t.Fatalf("grounded citation should be accepted, got fallback: %+v", got)
	}
	if len(got.AffectedLaws) != 1 {
		t.Fatalf("affected laws = %v", got.AffectedLaws)
	}
	if len(got.AppliedArticles) == 0 {
		t.Error("applied articles should carry the retrieval hits")
	}
	// Every applied article must come from the index.
	for _, r := range got.AppliedArticles {
		if r.Article.ID != "a1" && r.Article.ID != "a2" {
			t.Errorf("applied article %s was never retrieved", r.Article.ID)
		}
	}
	// The prompt must have carried the retrieved context.
	if len(provider.Calls) != 1 {
		t.Fatalf("expected one LLM call, got %d", len(provider.Calls))
	}
}

func TestSummarizeInventedCitationRejected(t *testing.T) {
	provider := &llm.MockProvider{Responses: []string{
		`{"executive_summary": "resumen", "affected_laws": ["Ley 999-99 - Art. 9999"]}`,
	}}
	g := newTestGenerator(t, provider, buildTestIndex(t))

	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if !got.Fallback {
		t.Fatal("invented citation must trigger the generic fallback")
	}
	for _, law := range got.AffectedLaws {
		if strings.Contains(law, "999") {
			t.Errorf("invented citation survived: %q", law)
		}
	}
}

func TestSummarizeLLMFailureFallsBack(t *testing.T) {
	provider := &llm.MockProvider{Err: errors.New("timeout")}
	g := newTestGenerator(t, provider, buildTestIndex(t))

	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if !got.Fallback {
		t.Fatal("LLM failure must yield the fallback summary")
	}
	if got.ExecutiveSummary == "" {
		t.Error("fallback summary must not be empty")
	}
	// Rental contract gets the rental law list.
	joined := strings.Join(got.AffectedLaws, " ")
	if !strings.Contains(joined, "arrendamiento") && !strings.Contains(joined, "alquiler") {
		t.Errorf("rental fallback laws expected, got %v", got.AffectedLaws)
	}
}

func TestSummarizeNilClientFallsBack(t *testing.T) {
	g := newTestGenerator(t, nil, nil)
	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if !got.Fallback || got.ExecutiveSummary == "" {
		t.Errorf("nil client should yield fallback, got %+v", got)
	}
}

func TestSummarizeRAGDisabledRejectsSpecificArticles(t *testing.T) {
	provider := &llm.MockProvider{Responses: []string{
		`{"executive_summary": "resumen", "affected_laws": ["Código Civil - Art. 1720"]}`,
	}}
	// No index: RAG disabled, no verified context exists.
	g := newTestGenerator(t, provider, nil)

	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if got.Fallback {
		t.Fatal("summary text itself should be kept, only the laws replaced")
	}
	for _, law := range got.AffectedLaws {
		if specificArticleRe.MatchString(law) {
			t.Errorf("specific article survived without RAG context: %q", law)
		}
	}
}

func TestSummarizeRAGDisabledKeepsGenericReferences(t *testing.T) {
	provider := &llm.MockProvider{Responses: []string{
		`{"executive_summary": "resumen", "affected_laws": ["Código Civil, disposiciones sobre arrendamiento"]}`,
	}}
	g := newTestGenerator(t, provider, nil)

	got := g.Summarize(context.Background(), rentalContract, analyzedClauses())
	if got.Fallback {
		t.Fatal("generic references should be accepted without RAG")
	}
	if len(got.AffectedLaws) != 1 || !strings.Contains(got.AffectedLaws[0], "Código Civil") {
		t.Errorf("affected laws = %v", got.AffectedLaws)
	}
	if len(got.AppliedArticles) != 0 {
		t.Error("no applied articles without retrieval")
	}
}

func TestCorroborated(t *testing.T) {
	retrieved := []*models.SearchResult{{
		Article: &models.LegalArticle{
			ID: "a1", Number: "3", ArticleCode: "Art. 3", SourceLaw: "Ley 108-05",
		},
	}}
	tests := []struct {
		citation string
		want     bool
	}{
		{"Ley 108-05 - Art. 3", true},
		{"ley 108-05", true},             // source law alone
		{"ART. 3 sobre alquileres", true}, // article code, case-insensitive
		{"Art. 30", false},                // number boundary respected
		{"Ley 4314", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := corroborated(tt.citation, retrieved); got != tt.want {
			t.Errorf("corroborated(%q) = %v, want %v", tt.citation, got, tt.want)
		}
	}
}
