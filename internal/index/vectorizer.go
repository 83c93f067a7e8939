package index

import (
	"math"
	"sort"
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// VectorizerConfig mirrors the parameters the corpus vectors were tuned with.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size, keeping the most frequent terms.
	MaxFeatures int
	// MaxDocFreq drops terms appearing in more than this fraction of documents.
	MaxDocFreq float64
	// NgramMax builds n-grams from 1 up to this size.
	NgramMax int
}

// Vectorizer turns text into L2-normalized TF-IDF vectors over a vocabulary
// learned from the article corpus. Fit is called once at index build; after
// that Transform is read-only and safe for concurrent use.
type Vectorizer struct {
	cfg        VectorizerConfig
	vocabulary map[string]int
	idf        []float64
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(cfg VectorizerConfig) *Vectorizer {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 3000
	}
	if cfg.MaxDocFreq <= 0 || cfg.MaxDocFreq > 1 {
		cfg.MaxDocFreq = 0.8
	}
	if cfg.NgramMax <= 0 {
		cfg.NgramMax = 2
	}
	return &Vectorizer{cfg: cfg}
}

// ngrams tokenizes text, drops stopwords, and emits 1..NgramMax grams.
func (v *Vectorizer) ngrams(text string) []string {
	raw := utils.Tokenize(text)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if !isStopword(t) {
			tokens = append(tokens, t)
		}
	}
	grams := make([]string, 0, len(tokens)*v.cfg.NgramMax)
	for n := 1; n <= v.cfg.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// Fit learns the vocabulary and IDF weights from the corpus and returns the
// TF-IDF vector of every document, aligned with the input order.
func (v *Vectorizer) Fit(corpus []string) [][]float64 {
	type termStat struct {
		docFreq   int
		totalFreq int
	}
	stats := make(map[string]*termStat)
	docGrams := make([][]string, len(corpus))

	for i, doc := range corpus {
		grams := v.ngrams(doc)
		docGrams[i] = grams
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			st, ok := stats[g]
			if !ok {
				st = &termStat{}
				stats[g] = st
			}
			st.totalFreq++
			if _, dup := seen[g]; !dup {
				st.docFreq++
				seen[g] = struct{}{}
			}
		}
	}

	n := len(corpus)
	maxDF := int(v.cfg.MaxDocFreq * float64(n))
	kept := make([]string, 0, len(stats))
	for term, st := range stats {
		if n > 1 && st.docFreq > maxDF {
			continue
		}
		kept = append(kept, term)
	}
	// Keep the most frequent terms when the vocabulary overflows. Sort by
	// total frequency, then alphabetically for determinism.
	sort.Slice(kept, func(i, j int) bool {
		si, sj := stats[kept[i]], stats[kept[j]]
		if si.totalFreq != sj.totalFreq {
			return si.totalFreq > sj.totalFreq
		}
		return kept[i] < kept[j]
	})
	if len(kept) > v.cfg.MaxFeatures {
		kept = kept[:v.cfg.MaxFeatures]
	}
	sort.Strings(kept)

	v.vocabulary = make(map[string]int, len(kept))
	v.idf = make([]float64, len(kept))
	for col, term := range kept {
		v.vocabulary[term] = col
		df := stats[term].docFreq
		v.idf[col] = math.Log(float64(1+n)/float64(1+df)) + 1.0
	}

	vectors := make([][]float64, n)
	for i, grams := range docGrams {
		vectors[i] = v.vectorize(grams)
	}
	return vectors
}

// Transform returns the TF-IDF vector of text against the fitted vocabulary.
// Unfitted vectorizers return nil.
func (v *Vectorizer) Transform(text string) []float64 {
	if v.vocabulary == nil {
		return nil
	}
	return v.vectorize(v.ngrams(text))
}

func (v *Vectorizer) vectorize(grams []string) []float64 {
	vec := make([]float64, len(v.idf))
	for _, g := range grams {
		if col, ok := v.vocabulary[g]; ok {
			vec[col]++
		}
	}
	for col := range vec {
		vec[col] *= v.idf[col]
	}
	utils.NormalizeL2(vec)
	return vec
}

// VocabularySize returns the number of fitted terms, 0 before Fit.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}
