package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/analyzer"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/classify"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/index"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/segment"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/storage"
)

func testArticles() []*models.LegalArticle {
	return []*models.LegalArticle{
		{
			ID: "a1", Number: "3", Topic: "alquileres", ArticleCode: "Art. 3",
			Content:   "El propietario no puede aumentar el precio del alquiler sin cumplir los requisitos legales.",
			SourceLaw: "Ley 108-05", RelevanceScore: 0.9, IsActive: true,
		},
		{
			ID: "a2", Number: "1710", Topic: "contratos_generales", ArticleCode: "Art. 1710",
			Content:   "El contrato de locación obliga a las partes según lo pactado.",
			SourceLaw: "Código Civil", RelevanceScore: 0.7, IsActive: true,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	idx := index.NewArticleIndex(&cfg.Search, logger)
	if err := idx.Build(context.Background(), testArticles()); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	an := analyzer.New(
		segment.NewSegmenter(nil, cfg.Analysis.MinFragmentLength, logger),
		classify.NewMockClassifier(),
		llm.NewValidator(nil, logger),
		nil,
		&cfg.Analysis,
		logger,
	)
	return NewServer(an, idx, store, &cfg.Server, logger)
}

func TestHandleAnalyze_JSONBody(t *testing.T) {
	s := newTestServer(t)

	body := `{"text": "PRIMERO: El Propietario alquila el local comercial al Inquilino. SEGUNDO: El Inquilino renuncia a todo derecho de reclamación ante los tribunales."}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var analysis models.ContractAnalysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if analysis.Status != models.StatusCompleted {
		t.Errorf("status = %s", analysis.Status)
	}
	if analysis.TotalClauses != 2 {
		t.Errorf("total clauses = %d, want 2", analysis.TotalClauses)
	}
	if analysis.AbusiveCount != 1 {
		t.Errorf("abusive count = %d, want 1", analysis.AbusiveCount)
	}

	// The analysis must be retrievable afterwards.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysis.ID, nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("get analysis status = %d", w.Code)
	}
}

func TestHandleAnalyze_EmptyText(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", strings.NewReader(`{"text": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleAnalyze_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleAnalyze_FileUpload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contrato.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("PRIMERO: El Propietario alquila el local. SEGUNDO: El pago es mensual y por adelantado."))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var analysis models.ContractAnalysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if analysis.TotalClauses != 2 {
		t.Errorf("total clauses = %d, want 2", analysis.TotalClauses)
	}
}

func TestHandleGetAnalysis_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/nope", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleListAnalyses(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"an1", "an2"} {
		err := s.storage.SaveAnalysis(context.Background(), &models.ContractAnalysis{
			ID: id, Status: models.StatusCompleted, RiskLevel: models.RiskLow,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses?limit=1", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Analyses []*models.ContractAnalysis `json:"analyses"`
		Total    int64                      `json:"total"`
		Limit    int                        `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Analyses) != 1 || resp.Total != 2 {
		t.Errorf("got %d analyses, total %d", len(resp.Analyses), resp.Total)
	}
}

func TestHandleSearchArticles(t *testing.T) {
	s := newTestServer(t)

	body := `{"query": "aumento del precio del alquiler", "max_results": 5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Results []*models.SearchResult `json:"results"`
		Total   int                    `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total == 0 {
		t.Error("expected at least one result for an on-corpus query")
	}
}

func TestHandleSearchArticles_EmptyQuery(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/search", strings.NewReader(`{"query": ""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleGetArticle(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles/a1", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/articles/missing", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing article status = %d, want 404", w.Code)
	}
}

func TestHandleArticleStats(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles/stats", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats index.IndexStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalArticles != 2 {
		t.Errorf("total articles = %d, want 2", stats.TotalArticles)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)

	if err := s.storage.SaveArticles(context.Background(), testArticles()); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Articles int64 `json:"articles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Articles != 2 {
		t.Errorf("articles = %d, want 2", resp.Articles)
	}
}
