package corpus

import (
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// maxKeywords caps how many keywords an article carries.
const maxKeywords = 10

// topicKeywords are candidate keywords per corpus topic, checked first so
// topic-specific vocabulary outranks the general legal list.
var topicKeywords = map[string][]string{
	"alquileres":           {"arrendamiento", "alquiler", "inquilino", "arrendador", "renta", "local"},
	"registro_inmobiliario": {"inmueble", "registro", "propiedad", "transferencia", "titulo"},
	"contratos_generales":  {"contrato", "convenio", "obligacion", "bilateral", "unilateral"},
	"hipotecas":            {"hipoteca", "gravamen", "acreedor", "deudor", "inmueble"},
}

// legalKeywords are general legal-vocabulary candidates.
var legalKeywords = []string{
	"contrato", "obligacion", "derecho", "deber", "pago", "precio",
	"venta", "compraventa", "vendedor", "comprador", "garantia",
	"fianza", "deposito", "plazo", "termino", "rescision",
	"propiedad", "inmueble", "bien", "cosa",
}

// ExtractKeywords derives keywords from article content: topic-specific
// candidates first, then general legal vocabulary, keeping only terms that
// actually appear in the content. This is an offline maintenance step run at
// corpus load, never at request time.
func ExtractKeywords(content, topic string) []string {
	folded := strings.ToLower(utils.FoldAccents(content))

	var keywords []string
	seen := make(map[string]struct{})
	add := func(kw string) {
		if len(keywords) >= maxKeywords {
			return
		}
		if _, dup := seen[kw]; dup {
			return
		}
		if strings.Contains(folded, kw) {
			seen[kw] = struct{}{}
			keywords = append(keywords, kw)
		}
	}

	for _, kw := range topicKeywords[strings.ToLower(topic)] {
		add(kw)
	}
	for _, kw := range legalKeywords {
		add(kw)
	}
	return keywords
}

// relevanceCues raise an article's static relevance prior when present.
var relevanceCues = []string{
	"contrato", "obligacion", "derecho", "precio", "venta",
	"arrendamiento", "garantia", "transferencia", "propiedad",
	"pago", "inmueble", "vendedor", "comprador", "inquilino",
}

// RelevanceScore computes the static relevance prior for an article from
// its content: a 0.5 base raised by legal-vocabulary density and by wording
// that defines or regulates, clamped to [0.1, 1.0].
func RelevanceScore(content string) float64 {
	folded := strings.ToLower(utils.FoldAccents(content))

	score := 0.5
	for _, cue := range relevanceCues {
		if strings.Contains(folded, cue) {
			score += 0.03
		}
	}
	for _, cue := range []string{"define", "establece", "regula"} {
		if strings.Contains(folded, cue) {
			score += 0.1
			break
		}
	}
	for _, cue := range []string{"obligaciones", "derechos", "responsabilidades"} {
		if strings.Contains(folded, cue) {
			score += 0.1
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}
