// Package summary generates the contract-level executive summary. With RAG
// enabled the LLM is grounded in retrieved statute articles and its citations
// are cross-checked against the retrieval set; any failure falls back to a
// deterministic, contract-type-keyed generic summary.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/index"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// maxAppliedArticles caps how many citations a summary surfaces after
// hierarchy re-ranking.
const maxAppliedArticles = 5

// Generator produces legal summaries. client may be nil (fallback only) and
// idx may be nil (RAG disabled regardless of config).
type Generator struct {
	client            *llm.Client
	index             *index.ArticleIndex
	ragEnabled        bool
	articlesPerClause int
	minSimilarity     float64
	logger            *zap.Logger
}

// NewGenerator creates a summary generator from the analysis and search
// config sections.
func NewGenerator(
	client *llm.Client,
	idx *index.ArticleIndex,
	analysisCfg *config.AnalysisConfig,
	searchCfg *config.SearchConfig,
	logger *zap.Logger,
) *Generator {
	perClause := analysisCfg.ArticlesPerClause
	if perClause <= 0 {
		perClause = 3
	}
	return &Generator{
		client:            client,
		index:             idx,
		ragEnabled:        analysisCfg.RAGEnabled && idx != nil,
		articlesPerClause: perClause,
		minSimilarity:     searchCfg.DefaultMinSimilarity,
		logger:            logger,
	}
}

// Summarize builds the executive summary for an analyzed contract. It never
// returns an error: every failure path yields the generic fallback so the
// caller always has a summary to report.
func (g *Generator) Summarize(ctx context.Context, contractText string, clauses []*models.Clause) *models.LegalSummary {
	ctype := DetectContractType(contractText)
	abusive := abusiveClauses(clauses)

	var retrieved []*models.SearchResult
	if g.ragEnabled && len(abusive) > 0 {
		retrieved = g.retrieveContext(ctx, abusive)
	}

	if g.client == nil {
		return g.fallback(ctype, clauses, retrieved, "cliente LLM no configurado")
	}

	systemPrompt := ragDisabledSystemPrompt
	if len(retrieved) > 0 {
		systemPrompt = ragSystemPrompt + "\n\nCONTEXTO LEGAL VERIFICADO:\n" + contextBlock(retrieved)
	}

	raw, err := g.client.Complete(ctx, systemPrompt, g.userPrompt(ctype, clauses, abusive))
	if err != nil {
		g.logger.Warn("summary LLM call failed, using generic fallback", zap.Error(err))
		return g.fallback(ctype, clauses, retrieved, err.Error())
	}

	resp, verrs := parseSummary(raw)
	if resp == nil {
		for _, ve := range verrs {
			g.logger.Warn("summary response invalid",
				zap.String("field", ve.Field), zap.String("message", ve.Message))
		}
		return g.fallback(ctype, clauses, retrieved, "respuesta LLM con formato inválido")
	}

	if len(retrieved) > 0 {
		// Every citation must correspond to a retrieved article. One invented
		// citation poisons the whole list, so the response is discarded.
		for _, law := range resp.AffectedLaws {
			if !corroborated(law, retrieved) {
				g.logger.Warn("summary cited an article outside the retrieved context",
					zap.String("citation", law))
				return g.fallback(ctype, clauses, retrieved, "cita no corroborada: "+law)
			}
		}
		return &models.LegalSummary{
			ExecutiveSummary: resp.ExecutiveSummary,
			AffectedLaws:     resp.AffectedLaws,
			AppliedArticles:  retrieved,
		}
	}

	// No verified context exists, so specific article numbers cannot be
	// grounded; entries carrying them are replaced with generic references.
	laws := resp.AffectedLaws
	if citesSpecificArticles(laws) {
		g.logger.Warn("summary cited specific articles without RAG context, using generic laws")
		laws = GenericLaws(ctype)
	}
	return &models.LegalSummary{
		ExecutiveSummary: resp.ExecutiveSummary,
		AffectedLaws:     laws,
	}
}

// retrieveContext searches the article index for each abusive clause and
// returns the deduplicated union, hierarchy-ranked and truncated.
func (g *Generator) retrieveContext(ctx context.Context, abusive []*models.Clause) []*models.SearchResult {
	seen := make(map[string]struct{})
	var all []*models.SearchResult
	for _, c := range abusive {
		results, err := g.index.Search(ctx, &models.SearchQuery{
			Query:         utils.Truncate(c.Text, 200),
			MaxResults:    g.articlesPerClause,
			MinSimilarity: g.minSimilarity,
		})
		if err != nil {
			g.logger.Warn("context retrieval failed for clause",
				zap.String("label", c.Label), zap.Error(err))
			continue
		}
		for _, r := range results {
			if _, dup := seen[r.Article.ID]; dup {
				continue
			}
			seen[r.Article.ID] = struct{}{}
			all = append(all, r)
		}
	}
	return index.RankCitations(all, maxAppliedArticles)
}

const ragSystemPrompt = `Eres un abogado experto en derecho contractual dominicano.
Redacta un resumen ejecutivo del análisis de un contrato, fundamentado EXCLUSIVAMENTE
en los artículos del contexto legal verificado que aparece más abajo.

Reglas estrictas:
- SOLO puedes citar artículos y leyes que aparecen en el contexto verificado.
- Está PROHIBIDO mencionar cualquier artículo o número de ley que no esté en el contexto.
- Cada entrada de "affected_laws" debe referirse a un artículo del contexto.

Responde SOLO con un objeto JSON válido:
{
  "executive_summary": "resumen ejecutivo en español",
  "affected_laws": ["Ley X - Art. N", ...]
}
Sin prosa, sin markdown, nada fuera del JSON.`

const ragDisabledSystemPrompt = `Eres un abogado experto en derecho contractual dominicano.
Redacta un resumen ejecutivo del análisis de un contrato.

No dispones de un contexto legal verificado, por lo tanto:
- NO cites números de artículo específicos.
- Usa solo referencias genéricas a leyes o categorías normativas
  (por ejemplo "Código Civil, disposiciones sobre arrendamiento").

Responde SOLO con un objeto JSON válido:
{
  "executive_summary": "resumen ejecutivo en español",
  "affected_laws": ["referencia genérica", ...]
}
Sin prosa, sin markdown, nada fuera del JSON.`

// contextBlock renders the retrieved articles for the prompt. Only these
// articles may be cited.
func contextBlock(retrieved []*models.SearchResult) string {
	var b strings.Builder
	for _, r := range retrieved {
		a := r.Article
		fmt.Fprintf(&b, "- %s (%s): %s\n", a.ArticleCode, a.SourceLaw, utils.Truncate(a.Content, 300))
	}
	return b.String()
}

func (g *Generator) userPrompt(ctype ContractType, clauses []*models.Clause, abusive []*models.Clause) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tipo de contrato: %s\n", ctype)
	fmt.Fprintf(&b, "Cláusulas analizadas: %d\n", len(clauses))
	fmt.Fprintf(&b, "Cláusulas potencialmente abusivas: %d\n", len(abusive))
	if len(abusive) > 0 {
		b.WriteString("\nCláusulas marcadas:\n")
		for _, c := range abusive {
			fmt.Fprintf(&b, "- %s: %s\n", c.Label, utils.Truncate(c.Text, 300))
		}
	}
	return b.String()
}

// rawSummary uses a pointer for the laws so a missing key is distinguishable
// from an explicit empty list.
type rawSummary struct {
	ExecutiveSummary string    `json:"executive_summary"`
	AffectedLaws     *[]string `json:"affected_laws"`
}

type summaryResponse struct {
	ExecutiveSummary string
	AffectedLaws     []string
}

// parseSummary parses and validates the LLM summary response. Returns nil
// plus the validation errors when the response cannot be accepted.
func parseSummary(raw string) (*summaryResponse, []llm.ValidationError) {
	var errs []llm.ValidationError

	raw = llm.StripMarkdownFences(raw)

	var rs rawSummary
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		fixed := llm.FixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &rs); err2 != nil {
			errs = append(errs, llm.ValidationError{Field: "json_parse", Message: err.Error()})
			return nil, errs
		}
	}

	if strings.TrimSpace(rs.ExecutiveSummary) == "" {
		errs = append(errs, llm.ValidationError{Field: "executive_summary", Message: "required field missing or empty"})
	}
	if rs.AffectedLaws == nil {
		errs = append(errs, llm.ValidationError{Field: "affected_laws", Message: "required field missing"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	laws := make([]string, 0, len(*rs.AffectedLaws))
	for _, l := range *rs.AffectedLaws {
		if l = strings.TrimSpace(l); l != "" {
			laws = append(laws, l)
		}
	}
	return &summaryResponse{ExecutiveSummary: rs.ExecutiveSummary, AffectedLaws: laws}, nil
}

// corroborated reports whether a citation matches a retrieved article: its
// article code, its article number as a standalone token, or its source law.
// Code and number are matched on word boundaries so "Art. 3" never matches
// inside "Art. 30".
func corroborated(citation string, retrieved []*models.SearchResult) bool {
	c := strings.ToLower(utils.FoldAccents(citation))
	for _, r := range retrieved {
		a := r.Article
		if matchesToken(c, a.ArticleCode) || matchesToken(c, a.Number) {
			return true
		}
		if a.SourceLaw != "" && strings.Contains(c, strings.ToLower(utils.FoldAccents(a.SourceLaw))) {
			return true
		}
	}
	return false
}

func matchesToken(citation, token string) bool {
	if token == "" {
		return false
	}
	folded := strings.ToLower(utils.FoldAccents(token))
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(folded) + `\b`)
	return re.MatchString(citation)
}

// specificArticleRe matches citations carrying a concrete article number,
// e.g. "Art. 1720", "artículo 3".
var specificArticleRe = regexp.MustCompile(`(?i)art(iculo|ículo|\.)?\s*\d+`)

func citesSpecificArticles(laws []string) bool {
	for _, l := range laws {
		if specificArticleRe.MatchString(l) {
			return true
		}
	}
	return false
}

// fallback builds the deterministic contract-type-keyed summary used on any
// LLM or citation failure.
func (g *Generator) fallback(ctype ContractType, clauses []*models.Clause, retrieved []*models.SearchResult, reason string) *models.LegalSummary {
	abusive := len(abusiveClauses(clauses))
	total := len(clauses)

	risk := "BAJO"
	if total > 0 {
		ratio := float64(abusive) / float64(total)
		switch {
		case ratio >= 0.7:
			risk = "ALTO"
		case ratio >= 0.3:
			risk = "MEDIO"
		}
	}

	var b strings.Builder
	b.WriteString("RESUMEN EJECUTIVO DEL ANÁLISIS CONTRACTUAL\n\n")
	fmt.Fprintf(&b, "Contrato de tipo: %s. Se analizaron %d cláusulas, de las cuales %d fueron marcadas como potencialmente abusivas. Nivel de riesgo: %s.\n",
		ctype, total, abusive, risk)
	if abusive > 0 {
		fmt.Fprintf(&b, "\nSe recomienda la revisión de las cláusulas marcadas con un abogado especializado antes de firmar el contrato.\n")
	}

	g.logger.Info("generic summary fallback used",
		zap.String("contract_type", string(ctype)), zap.String("reason", reason))

	return &models.LegalSummary{
		ExecutiveSummary: strings.TrimSpace(b.String()),
		AffectedLaws:     GenericLaws(ctype),
		AppliedArticles:  retrieved,
		Fallback:         true,
	}
}

func abusiveClauses(clauses []*models.Clause) []*models.Clause {
	out := make([]*models.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.IsAbusive {
			out = append(out, c)
		}
	}
	return out
}
