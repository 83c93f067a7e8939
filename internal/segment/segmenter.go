// Package segment splits raw contract text into ordered, labeled clauses.
//
// The primary strategy asks the LLM for a structured extraction; on failure
// it falls back to regex segmentation over Spanish legal ordinal markers, and
// finally to sentence splitting. Segmentation never returns an error: total
// failure yields an empty sequence, which callers must treat as "could not
// analyze", never as zero risk.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

// clauseMarkerRe matches the ordinal markers that open clauses in Dominican
// contract drafting practice. Accented and unaccented spellings both occur
// in scanned documents.
var clauseMarkerRe = regexp.MustCompile(
	`(?i)\b(PRIMER[OA]|SEGUND[OA]|TERCER[OA]|CUART[OA]|QUINT[OA]|SEXT[OA]|` +
		`S[EÉ]PTIM[OA]|OCTAV[OA]|NOVEN[OA]|D[EÉ]CIM[OA]|UND[EÉ]CIM[OA]|DUOD[EÉ]CIM[OA]|` +
		`POR CUANTO|POR TANTO|ART[IÍ]CULO\s+\d+)\s*[:.\-]`)

// Segmenter extracts clauses from contract text.
type Segmenter struct {
	client *llm.Client // nil disables the LLM strategy
	logger *zap.Logger
	// minFragment discards sentence-split fragments shorter than this,
	// filtering noise left by headers and signatures.
	minFragment int
}

// NewSegmenter creates a segmenter. client may be nil to use only the regex
// and sentence strategies.
func NewSegmenter(client *llm.Client, minFragment int, logger *zap.Logger) *Segmenter {
	if minFragment <= 0 {
		minFragment = 20
	}
	return &Segmenter{client: client, logger: logger, minFragment: minFragment}
}

const extractorSystemPrompt = `Eres un asistente legal que separa contratos en cláusulas.
Devuelve SOLO un arreglo JSON válido. Cada elemento tiene esta forma:
{"label": "PRIMERO", "text": "texto completo de la cláusula"}

Ejemplo de entrada:
"PRIMERO: El Propietario alquila el local. SEGUNDO: El precio es RD$20,000."
Ejemplo de salida:
[{"label": "PRIMERO", "text": "El Propietario alquila el local."},
 {"label": "SEGUNDO", "text": "El precio es RD$20,000."}]

No incluyas encabezados, firmas ni texto que no sea parte de una cláusula.
Sin prosa, sin markdown, nada fuera del arreglo JSON.`

// Segment splits text into ordered, labeled clauses. It never returns an
// error; an empty result means the text could not be segmented.
func (s *Segmenter) Segment(ctx context.Context, text string) []*models.Clause {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if s.client != nil {
		if clauses := s.segmentWithLLM(ctx, text); len(clauses) > 0 {
			return clauses
		}
	}

	if clauses := s.segmentWithMarkers(text); len(clauses) > 0 {
		return clauses
	}

	return s.segmentBySentences(text)
}

type extractedClause struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// segmentWithLLM asks the LLM for a structured clause extraction. Any failure
// (call error, malformed JSON, empty result) is logged and yields nil so the
// caller falls through to the regex strategy.
func (s *Segmenter) segmentWithLLM(ctx context.Context, text string) []*models.Clause {
	raw, err := s.client.Complete(ctx, extractorSystemPrompt, "Contrato:\n"+text)
	if err != nil {
		s.logger.Warn("LLM clause extraction failed, falling back to regex", zap.Error(err))
		return nil
	}

	raw = llm.StripMarkdownFences(raw)
	var extracted []extractedClause
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		fixed := llm.FixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &extracted); err2 != nil {
			s.logger.Warn("LLM clause extraction returned malformed JSON", zap.Error(err))
			return nil
		}
	}

	clauses := make([]*models.Clause, 0, len(extracted))
	unlabeled := 0
	for _, ec := range extracted {
		ctext := strings.TrimSpace(ec.Text)
		if ctext == "" {
			continue
		}
		label := strings.TrimSpace(ec.Label)
		if label == "" {
			unlabeled++
			label = fmt.Sprintf("UNLABELED_%d", unlabeled)
		}
		clauses = append(clauses, &models.Clause{Label: label, Text: ctext})
	}
	return clauses
}

// segmentWithMarkers splits on ordinal markers. The text between one marker
// and the next (or end of text) is that clause's body.
func (s *Segmenter) segmentWithMarkers(text string) []*models.Clause {
	locs := clauseMarkerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	clauses := make([]*models.Clause, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		label := strings.TrimRight(strings.TrimSpace(text[loc[0]:loc[1]]), ":.-")
		label = strings.ToUpper(strings.TrimSpace(label))
		body := strings.TrimSpace(text[loc[1]:end])
		if len(body) < 10 {
			continue
		}
		clauses = append(clauses, &models.Clause{Label: label, Text: body})
	}
	return clauses
}

// segmentBySentences is the last-resort strategy: split on sentence periods
// and keep fragments long enough to be meaningful.
func (s *Segmenter) segmentBySentences(text string) []*models.Clause {
	parts := strings.Split(text, ".")
	clauses := make([]*models.Clause, 0, len(parts))
	n := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) < s.minFragment {
			continue
		}
		n++
		clauses = append(clauses, &models.Clause{
			Label: fmt.Sprintf("UNLABELED_%d", n),
			Text:  p,
		})
	}
	return clauses
}
