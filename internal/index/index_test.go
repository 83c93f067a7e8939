package index

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		DefaultMaxResults:    5,
		DefaultMinSimilarity: 0.1,
		MaxFeatures:          3000,
		MaxDocFreq:           0.8,
		NgramMax:             2,
	}
}

func testArticles() []*models.LegalArticle {
	now := time.Now()
	return []*models.LegalArticle{
		{
			ID: "a1", Number: "3", Topic: "alquileres", ArticleCode: "Art. 3",
			Content:   "El propietario no puede aumentar el precio del alquiler sin autorización del Control de Alquileres.",
			SourceLaw: "Ley 108-05", Keywords: []string{"alquiler", "aumento", "precio"},
			RelevanceScore: 0.9, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "a2", Number: "1720", Topic: "alquileres", ArticleCode: "Art. 1720",
			Content:   "El arrendador está obligado a entregar la cosa en buen estado de reparaciones de toda especie.",
			SourceLaw: "Código Civil", Keywords: []string{"arrendador", "reparaciones"},
			RelevanceScore: 0.7, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "a3", Number: "12", Topic: "hipotecas", ArticleCode: "Art. 12",
			Content:   "La hipoteca es un derecho real sobre los inmuebles afectados al cumplimiento de una obligación.",
			SourceLaw: "Ley 189-11", Keywords: []string{"hipoteca", "inmueble"},
			RelevanceScore: 0.8, IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "a4", Number: "99", Topic: "alquileres", ArticleCode: "Art. 99",
			Content:   "Artículo derogado sobre el depósito de alquiler.",
			SourceLaw: "Decreto 4807", Keywords: []string{"deposito"},
			RelevanceScore: 0.5, IsActive: false, CreatedAt: now, UpdatedAt: now,
		},
	}
}

func buildTestIndex(t *testing.T) *ArticleIndex {
	t.Helper()
	ai := NewArticleIndex(testSearchConfig(), zap.NewNop())
	if err := ai.Build(context.Background(), testArticles()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ai.Close() })
	return ai
}

func TestSearchHybridRanksDualHitsFirst(t *testing.T) {
	ai := buildTestIndex(t)

	results, err := ai.Search(context.Background(), &models.SearchQuery{
		Query:      "aumento del precio del alquiler",
		MaxResults: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Article.ID != "a1" {
		t.Errorf("top result = %s, want a1", results[0].Article.ID)
	}
	if results[0].SearchMethod != models.MethodHybrid {
		t.Errorf("top method = %s, want hybrid", results[0].SearchMethod)
	}
	if len(results[0].Methods) != 2 {
		t.Errorf("top methods = %v, want both legs", results[0].Methods)
	}
}

func TestSearchMatchesKeywordOnlyTerms(t *testing.T) {
	now := time.Now()
	articles := []*models.LegalArticle{{
		ID: "k1", Number: "7", Topic: "alquileres", ArticleCode: "Art. 7",
		Content:   "El inquilino responde por las obligaciones accesorias del contrato.",
		SourceLaw: "Ley 108-05", Keywords: []string{"fianza", "garantia"},
		RelevanceScore: 0.6, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}}
	ai := NewArticleIndex(testSearchConfig(), zap.NewNop())
	if err := ai.Build(context.Background(), articles); err != nil {
		t.Fatal(err)
	}
	defer ai.Close()

	// "fianza" and "garantia" appear only in the curated keywords, never in
	// the article body; the semantic leg must still find them.
	results, err := ai.Search(context.Background(), &models.SearchQuery{
		Query:      "fianza garantia",
		MaxResults: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected a hit on keyword-only terms")
	}
	top := results[0]
	if top.Article.ID != "k1" {
		t.Fatalf("top result = %s, want k1", top.Article.ID)
	}
	if top.SearchMethod != models.MethodHybrid {
		t.Errorf("method = %s, want hybrid (semantic leg must hit too)", top.SearchMethod)
	}
	hasSemantic := false
	for _, m := range top.Methods {
		if m == models.MethodSemantic {
			hasSemantic = true
		}
	}
	if !hasSemantic {
		t.Errorf("methods = %v, want a semantic hit", top.Methods)
	}
}

func TestSearchExcludesInactiveArticles(t *testing.T) {
	ai := buildTestIndex(t)

	results, err := ai.Search(context.Background(), &models.SearchQuery{
		Query:      "deposito de alquiler derogado",
		MaxResults: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Article.ID == "a4" {
			t.Error("inactive article a4 should never be returned")
		}
	}
}

func TestSearchTopicFilter(t *testing.T) {
	ai := buildTestIndex(t)

	results, err := ai.Search(context.Background(), &models.SearchQuery{
		Query:       "derecho real sobre inmuebles",
		TopicFilter: "hipotecas",
		MaxResults:  5,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Article.Topic != "hipotecas" {
			t.Errorf("result %s has topic %q, want hipotecas", r.Article.ID, r.Article.Topic)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	ai := buildTestIndex(t)
	if _, err := ai.Search(context.Background(), &models.SearchQuery{Query: ""}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	ai := NewArticleIndex(testSearchConfig(), zap.NewNop())
	if err := ai.Build(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	defer ai.Close()

	results, err := ai.Search(context.Background(), &models.SearchQuery{Query: "alquiler", MaxResults: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty corpus, got %d", len(results))
	}
}

func TestSearchStopwordOnlyQuery(t *testing.T) {
	ai := buildTestIndex(t)
	results, err := ai.Search(context.Background(), &models.SearchQuery{Query: "de la el en", MaxResults: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("stopword-only query returned %d results, want 0", len(results))
	}
}

func TestRebuildReplacesCorpus(t *testing.T) {
	ai := buildTestIndex(t)

	replacement := []*models.LegalArticle{{
		ID: "b1", Number: "1", Topic: "ventas", ArticleCode: "Art. 1",
		Content:   "La venta es perfecta entre las partes desde que se conviene en la cosa y el precio.",
		SourceLaw: "Código Civil", Keywords: []string{"venta"},
		RelevanceScore: 0.6, IsActive: true,
	}}
	if err := ai.Build(context.Background(), replacement); err != nil {
		t.Fatal(err)
	}

	stats := ai.Stats()
	if stats.TotalArticles != 1 {
		t.Errorf("stats.TotalArticles = %d, want 1", stats.TotalArticles)
	}
	if _, ok := ai.Get("a1"); ok {
		t.Error("old article a1 should be gone after rebuild")
	}
	if _, ok := ai.Get("b1"); !ok {
		t.Error("new article b1 should be present")
	}
}

func TestStats(t *testing.T) {
	ai := buildTestIndex(t)
	stats := ai.Stats()

	if stats.TotalArticles != 3 {
		t.Errorf("TotalArticles = %d, want 3 (inactive excluded)", stats.TotalArticles)
	}
	if stats.Topics["alquileres"] != 2 {
		t.Errorf("Topics[alquileres] = %d, want 2", stats.Topics["alquileres"])
	}
	if !stats.Vectorized {
		t.Error("expected Vectorized to be true")
	}
}

func TestArticlesByTopic(t *testing.T) {
	ai := buildTestIndex(t)
	got := ai.ArticlesByTopic("alquileres", 10)
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
}

func TestCombineResultsAveragesDualScores(t *testing.T) {
	a := &models.LegalArticle{ID: "x", RelevanceScore: 0.9}
	semantic := []*models.SearchResult{{
		Article: a, SimilarityScore: 0.6,
		SearchMethod: models.MethodSemantic,
		Methods:      []models.SearchMethod{models.MethodSemantic},
	}}
	keyword := []*models.SearchResult{{
		Article: a, SimilarityScore: 0.9,
		SearchMethod: models.MethodKeyword,
		Methods:      []models.SearchMethod{models.MethodKeyword},
	}}

	combined := combineResults(semantic, keyword, 5)
	if len(combined) != 1 {
		t.Fatalf("got %d results, want 1 deduplicated", len(combined))
	}
	if got := combined[0].SimilarityScore; got != 0.75 {
		t.Errorf("dual-hit score = %v, want 0.75", got)
	}
	if combined[0].SearchMethod != models.MethodHybrid {
		t.Errorf("method = %s, want hybrid", combined[0].SearchMethod)
	}
}
