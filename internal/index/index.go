// Package index implements hybrid retrieval over the legal article corpus:
// a TF-IDF semantic leg and a Bleve keyword leg, combined per article and
// re-ranked by the Dominican normative hierarchy for citation use.
package index

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// ArticleIndex holds the in-memory article corpus with both retrieval legs.
// Build replaces the whole corpus atomically; searches run under a read lock
// so corpus reloads never produce partial results.
type ArticleIndex struct {
	cfg         *config.SearchConfig
	logger      *zap.Logger
	keywordPath string

	mu         sync.RWMutex
	articles   []*models.LegalArticle
	byID       map[string]*models.LegalArticle
	vectorizer *Vectorizer
	vectors    [][]float64
	keyword    *KeywordIndex
}

// IndexStats summarizes the loaded corpus.
type IndexStats struct {
	TotalArticles int            `json:"total_articles"`
	Topics        map[string]int `json:"topics"`
	SourceLaws    map[string]int `json:"source_laws"`
	Vectorized    bool           `json:"vectorized"`
}

// Option configures an ArticleIndex.
type Option func(*ArticleIndex)

// WithKeywordPath stores the keyword index on disk at path instead of in
// memory. The index is removed and rebuilt on every corpus (re)build.
func WithKeywordPath(path string) Option {
	return func(ai *ArticleIndex) { ai.keywordPath = path }
}

// NewArticleIndex creates an empty index. Call Build before searching.
func NewArticleIndex(cfg *config.SearchConfig, logger *zap.Logger, opts ...Option) *ArticleIndex {
	ai := &ArticleIndex{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(ai)
	}
	return ai
}

// Build replaces the corpus with articles, fitting the vectorizer and
// rebuilding the keyword index. Inactive articles are skipped.
func (ai *ArticleIndex) Build(ctx context.Context, articles []*models.LegalArticle) error {
	active := make([]*models.LegalArticle, 0, len(articles))
	for _, a := range articles {
		if a.IsActive {
			active = append(active, a)
		}
	}

	if ai.keywordPath != "" {
		_ = os.RemoveAll(ai.keywordPath)
	}
	keyword, err := NewKeywordIndex(ai.keywordPath)
	if err != nil {
		return fmt.Errorf("failed to build keyword index: %w", err)
	}
	for _, a := range active {
		if err := keyword.Index(ctx, a); err != nil {
			keyword.Close()
			return fmt.Errorf("failed to index article %s: %w", a.ID, err)
		}
	}

	vectorizer := NewVectorizer(VectorizerConfig{
		MaxFeatures: ai.cfg.MaxFeatures,
		MaxDocFreq:  ai.cfg.MaxDocFreq,
		NgramMax:    ai.cfg.NgramMax,
	})
	// Keywords are part of the vectorized text so curated terms that never
	// appear verbatim in the article body still produce semantic hits.
	corpus := make([]string, len(active))
	for i, a := range active {
		corpus[i] = a.Content
		if len(a.Keywords) > 0 {
			corpus[i] += " " + strings.Join(a.Keywords, " ")
		}
	}
	var vectors [][]float64
	if len(corpus) > 0 {
		vectors = vectorizer.Fit(corpus)
	}

	byID := make(map[string]*models.LegalArticle, len(active))
	for _, a := range active {
		byID[a.ID] = a
	}

	ai.mu.Lock()
	old := ai.keyword
	ai.articles = active
	ai.byID = byID
	ai.vectorizer = vectorizer
	ai.vectors = vectors
	ai.keyword = keyword
	ai.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	ai.logger.Info("article index built",
		zap.Int("articles", len(active)),
		zap.Int("vocabulary", vectorizer.VocabularySize()))
	return nil
}

// Search runs both retrieval legs and combines their hits. Articles found by
// both legs get the average of their scores and sort first.
func (ai *ArticleIndex) Search(ctx context.Context, q *models.SearchQuery) ([]*models.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	minSim := q.MinSimilarity
	if minSim <= 0 {
		minSim = ai.cfg.DefaultMinSimilarity
	}

	ai.mu.RLock()
	defer ai.mu.RUnlock()

	if len(ai.articles) == 0 {
		return nil, nil
	}

	semantic := ai.semanticSearch(q.Query, q.TopicFilter, q.MaxResults*2, minSim)
	keyword, err := ai.keywordSearch(ctx, q.Query, q.TopicFilter, q.MaxResults)
	if err != nil {
		ai.logger.Warn("keyword search failed, using semantic leg only", zap.Error(err))
		keyword = nil
	}

	return combineResults(semantic, keyword, q.MaxResults), nil
}

// semanticSearch ranks the corpus by cosine similarity to the query vector.
// Vectors are L2-normalized so cosine reduces to a dot product.
func (ai *ArticleIndex) semanticSearch(query, topicFilter string, max int, minSim float64) []*models.SearchResult {
	qvec := ai.vectorizer.Transform(query)
	if qvec == nil {
		return nil
	}

	type scored struct {
		idx int
		sim float64
	}
	hits := make([]scored, 0, len(ai.articles))
	for i := range ai.articles {
		if topicFilter != "" && !topicMatches(ai.articles[i].Topic, topicFilter) {
			continue
		}
		sim := utils.Dot(qvec, ai.vectors[i])
		if sim < minSim {
			continue
		}
		hits = append(hits, scored{idx: i, sim: sim})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
	if len(hits) > max {
		hits = hits[:max]
	}

	results := make([]*models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = &models.SearchResult{
			Article:         ai.articles[h.idx],
			SimilarityScore: h.sim,
			SearchMethod:    models.MethodSemantic,
			Methods:         []models.SearchMethod{models.MethodSemantic},
		}
	}
	return results
}

// keywordSearch returns Bleve hits scored with each article's static
// relevance prior, matching how the keyword leg has always been scored.
func (ai *ArticleIndex) keywordSearch(ctx context.Context, query, topicFilter string, max int) ([]*models.SearchResult, error) {
	ids, err := ai.keyword.Search(ctx, query, topicFilter, max)
	if err != nil {
		return nil, err
	}
	results := make([]*models.SearchResult, 0, len(ids))
	for _, id := range ids {
		a, ok := ai.byID[id]
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{
			Article:         a,
			SimilarityScore: a.RelevanceScore,
			SearchMethod:    models.MethodKeyword,
			Methods:         []models.SearchMethod{models.MethodKeyword},
		})
	}
	return results, nil
}

// combineResults merges both legs keyed by article ID. A dual hit keeps the
// average of the two scores and is marked hybrid. Final order: method count,
// then similarity, then static relevance, all descending.
func combineResults(semantic, keyword []*models.SearchResult, max int) []*models.SearchResult {
	combined := make(map[string]*models.SearchResult, len(semantic)+len(keyword))
	order := make([]string, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		combined[r.Article.ID] = r
		order = append(order, r.Article.ID)
	}
	for _, r := range keyword {
		if existing, ok := combined[r.Article.ID]; ok {
			existing.SimilarityScore = (existing.SimilarityScore + r.SimilarityScore) / 2
			existing.Methods = append(existing.Methods, models.MethodKeyword)
			existing.SearchMethod = models.MethodHybrid
		} else {
			combined[r.Article.ID] = r
			order = append(order, r.Article.ID)
		}
	}

	results := make([]*models.SearchResult, 0, len(order))
	for _, id := range order {
		results = append(results, combined[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		if len(results[i].Methods) != len(results[j].Methods) {
			return len(results[i].Methods) > len(results[j].Methods)
		}
		if results[i].SimilarityScore != results[j].SimilarityScore {
			return results[i].SimilarityScore > results[j].SimilarityScore
		}
		return results[i].Article.RelevanceScore > results[j].Article.RelevanceScore
	})
	if len(results) > max {
		results = results[:max]
	}
	return results
}

// ArticlesByTopic returns active articles whose topic contains topic,
// ordered by article number.
func (ai *ArticleIndex) ArticlesByTopic(topic string, max int) []*models.LegalArticle {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	matched := make([]*models.LegalArticle, 0, max)
	for _, a := range ai.articles {
		if topicMatches(a.Topic, topic) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Number < matched[j].Number })
	if max > 0 && len(matched) > max {
		matched = matched[:max]
	}
	return matched
}

// Get returns the active article with the given ID.
func (ai *ArticleIndex) Get(id string) (*models.LegalArticle, bool) {
	ai.mu.RLock()
	defer ai.mu.RUnlock()
	a, ok := ai.byID[id]
	return a, ok
}

// Stats returns corpus counts grouped by topic and source law.
func (ai *ArticleIndex) Stats() *IndexStats {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	stats := &IndexStats{
		TotalArticles: len(ai.articles),
		Topics:        make(map[string]int),
		SourceLaws:    make(map[string]int),
		Vectorized:    ai.vectorizer != nil && ai.vectorizer.VocabularySize() > 0,
	}
	for _, a := range ai.articles {
		stats.Topics[a.Topic]++
		stats.SourceLaws[a.SourceLaw]++
	}
	return stats
}

// Close releases the keyword index.
func (ai *ArticleIndex) Close() error {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	if ai.keyword != nil {
		err := ai.keyword.Close()
		ai.keyword = nil
		return err
	}
	return nil
}

// topicMatches does a case-insensitive, accent-folded substring match.
func topicMatches(topic, filter string) bool {
	h := strings.ToLower(utils.FoldAccents(topic))
	n := strings.ToLower(utils.FoldAccents(filter))
	return strings.Contains(h, n)
}
