package index

import (
	"sort"
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// Normative ranks of the Dominican legal order, highest first. A cited
// constitutional article must always outrank a decree regardless of textual
// similarity.
const (
	rankConstitucion        = 1000
	rankLeyOrganica         = 900
	rankLeyOrdinaria        = 800
	rankCodigoEspecializado = 750
	rankCodigoCivil         = 700
	rankDecretoLey          = 600
	rankDecreto             = 500
	rankReglamento          = 400
	rankResolucion          = 300
	rankOtro                = 100
)

// lawRanks maps exact source-law names to their normative rank. Spelling
// variants observed in the corpus get their own entries.
var lawRanks = map[string]int{
	"Ley 108-05":     rankLeyOrdinaria,
	"Ley No. 108-05": rankLeyOrdinaria,
	"Ley 4314":       rankLeyOrdinaria,
	"Ley Núm. 4314":  rankLeyOrdinaria,
	"Ley 834":        rankLeyOrdinaria,
	"Ley 189-11":     rankLeyOrdinaria,

	"Código Penal":       rankCodigoEspecializado,
	"Código de Trabajo":  rankCodigoEspecializado,
	"Código Tributario":  rankCodigoEspecializado,
	"Código de Comercio": rankCodigoEspecializado,

	"Código Civil": rankCodigoCivil,
	"Codigo Civil": rankCodigoCivil,

	"Decreto 4807-1959": rankDecreto,
	"Decreto No. 4807":  rankDecreto,
	"Decreto 4807":      rankDecreto,
}

// HierarchyRank returns the normative rank for a source law, using the exact
// table first and substring heuristics for unlisted names.
func HierarchyRank(sourceLaw string) int {
	clean := strings.TrimSpace(sourceLaw)
	if rank, ok := lawRanks[clean]; ok {
		return rank
	}

	lower := strings.ToLower(utils.FoldAccents(clean))
	switch {
	case strings.Contains(lower, "constitucion"):
		return rankConstitucion
	case strings.Contains(lower, "ley organica"):
		return rankLeyOrganica
	case strings.Contains(lower, "ley 108-05"), strings.Contains(lower, "control de alquileres"):
		return rankLeyOrdinaria
	case strings.Contains(lower, "ley 4314"):
		return rankLeyOrdinaria
	case strings.Contains(lower, "codigo civil"):
		return rankCodigoCivil
	case strings.Contains(lower, "decreto 4807"):
		return rankDecreto
	case strings.Contains(lower, "codigo"):
		return rankCodigoEspecializado
	case strings.Contains(lower, "ley") && (strings.Contains(lower, "no.") || strings.Contains(lower, "num.")):
		return rankLeyOrdinaria
	case strings.Contains(lower, "decreto"):
		return rankDecreto
	case strings.Contains(lower, "reglamento"):
		return rankReglamento
	case strings.Contains(lower, "resolucion"):
		return rankResolucion
	default:
		return rankOtro
	}
}

// CitationScore combines normative rank with retrieval scores. Rank is
// normalized to [0,1] so the weights are comparable; hierarchy dominates.
func CitationScore(r *models.SearchResult) float64 {
	rank := float64(HierarchyRank(r.Article.SourceLaw)) / float64(rankConstitucion)
	return 0.6*rank + 0.2*r.Article.RelevanceScore + 0.2*r.SimilarityScore
}

// RankCitations orders results by citation score descending and truncates to
// max. The input slice is not modified.
func RankCitations(results []*models.SearchResult, max int) []*models.SearchResult {
	ranked := make([]*models.SearchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return CitationScore(ranked[i]) > CitationScore(ranked[j])
	})
	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
