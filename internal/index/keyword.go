package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// articleDoc is the flattened form of a LegalArticle stored in Bleve.
type articleDoc struct {
	Content     string `json:"content"`
	Keywords    string `json:"keywords"`
	ArticleCode string `json:"article_code"`
	SourceLaw   string `json:"source_law"`
	Topic       string `json:"topic"`
}

// KeywordIndex is the Bleve-backed keyword leg of hybrid retrieval.
type KeywordIndex struct {
	index bleve.Index
}

// NewKeywordIndex creates a Bleve index at path, or an in-memory index when
// path is empty. An existing on-disk index is removed and rebuilt by the
// caller on corpus reload, so stale indexes are never reused silently.
func NewKeywordIndex(path string) (*KeywordIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so legal terms
	// like "alquileres" match exactly as written in queries.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	docMapping.AddFieldMappingsAt("article_code", textFieldMapping)
	docMapping.AddFieldMappingsAt("source_law", textFieldMapping)
	docMapping.AddFieldMappingsAt("topic", textFieldMapping)
	im.AddDocumentMapping("article", docMapping)
	im.DefaultType = "article"
	im.DefaultMapping = docMapping

	var (
		index bleve.Index
		err   error
	)
	if path == "" {
		index, err = bleve.NewMemOnly(im)
	} else {
		index, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &KeywordIndex{index: index}, nil
}

// Index adds one article to the keyword index.
func (k *KeywordIndex) Index(ctx context.Context, a *models.LegalArticle) error {
	doc := articleDoc{
		Content:     a.Content,
		Keywords:    strings.Join(a.Keywords, " "),
		ArticleCode: a.ArticleCode,
		SourceLaw:   a.SourceLaw,
		Topic:       a.Topic,
	}
	return k.index.Index(a.ID, doc)
}

// Search matches query words (longer than two characters) against content,
// keywords, article code, and source law, optionally restricted to a topic.
// Returns matched article IDs in Bleve relevance order, up to limit.
func (k *KeywordIndex) Search(ctx context.Context, query, topicFilter string, limit int) ([]string, error) {
	words := utils.Tokenize(query)
	fields := []string{"content", "keywords", "article_code", "source_law"}

	wordQueries := make([]blevequery.Query, 0, len(words)*len(fields))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		for _, field := range fields {
			mq := bleve.NewMatchQuery(w)
			mq.SetField(field)
			wordQueries = append(wordQueries, mq)
		}
	}
	if len(wordQueries) == 0 {
		return nil, nil
	}

	var q blevequery.Query = bleve.NewDisjunctionQuery(wordQueries...)
	if topicFilter != "" {
		tq := bleve.NewMatchQuery(topicFilter)
		tq.SetField("topic")
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := k.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	ids := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Delete removes an article from the index.
func (k *KeywordIndex) Delete(ctx context.Context, id string) error {
	return k.index.Delete(id)
}

// DocCount returns the number of indexed articles.
func (k *KeywordIndex) DocCount() (uint64, error) {
	return k.index.DocCount()
}

// Close closes the underlying Bleve index.
func (k *KeywordIndex) Close() error {
	return k.index.Close()
}
