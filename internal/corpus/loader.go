// Package corpus loads the legal article corpus from external files.
// Supported formats, dispatched by extension: JSON arrays, XLSX sheets, and
// pipe-delimited markdown lines (numero | tema | articulo | contenido |
// ley_asociada).
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

// Load reads articles from path. When path is a directory, every supported
// file inside it is loaded and the results concatenated in filename order.
func Load(path string) ([]*models.LegalArticle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus path: %w", err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".xlsx", ".md", ".txt":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []*models.LegalArticle
	for _, name := range names {
		articles, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		all = append(all, articles...)
	}
	return all, nil
}

func loadFile(path string) ([]*models.LegalArticle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	case ".md", ".txt":
		return loadDelimited(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format: %s", filepath.Ext(path))
	}
}

// articleRecord mirrors the field names the corpus files use.
type articleRecord struct {
	ID             string   `json:"id"`
	Numero         string   `json:"numero"`
	Tema           string   `json:"tema"`
	Articulo       string   `json:"articulo"`
	Contenido      string   `json:"contenido"`
	LeyAsociada    string   `json:"ley_asociada"`
	Keywords       []string `json:"keywords"`
	RelevanceScore *float64 `json:"relevance_score"`
	IsActive       *bool    `json:"is_active"`
}

func loadJSON(path string) ([]*models.LegalArticle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var records []articleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse corpus JSON: %w", err)
	}

	articles := make([]*models.LegalArticle, 0, len(records))
	for _, r := range records {
		articles = append(articles, fromRecord(r))
	}
	return articles, nil
}

// loadXLSX reads the first sheet. The header row names the columns; at
// minimum numero, tema, articulo, contenido, and ley_asociada must appear.
func loadXLSX(path string) ([]*models.LegalArticle, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("corpus xlsx %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"numero", "tema", "articulo", "contenido", "ley_asociada"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("corpus xlsx %s is missing column %q", path, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	articles := make([]*models.LegalArticle, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := articleRecord{
			Numero:      cell(row, "numero"),
			Tema:        cell(row, "tema"),
			Articulo:    cell(row, "articulo"),
			Contenido:   cell(row, "contenido"),
			LeyAsociada: cell(row, "ley_asociada"),
		}
		if r.Contenido == "" {
			continue
		}
		if kw := cell(row, "keywords"); kw != "" {
			for _, k := range strings.Split(kw, ",") {
				if k = strings.TrimSpace(k); k != "" {
					r.Keywords = append(r.Keywords, k)
				}
			}
		}
		articles = append(articles, fromRecord(r))
	}
	return articles, nil
}

// loadDelimited reads pipe-delimited lines. Blank lines and # comments are
// skipped; malformed lines are an error so corpus typos never load silently.
func loadDelimited(path string) ([]*models.LegalArticle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var articles []*models.LegalArticle
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 5 {
			return nil, fmt.Errorf("%s:%d: expected 5 pipe-delimited fields, got %d", path, n+1, len(parts))
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		articles = append(articles, fromRecord(articleRecord{
			Numero:      parts[0],
			Tema:        parts[1],
			Articulo:    parts[2],
			Contenido:   parts[3],
			LeyAsociada: parts[4],
		}))
	}
	return articles, nil
}

func fromRecord(r articleRecord) *models.LegalArticle {
	now := time.Now()
	a := &models.LegalArticle{
		ID:          r.ID,
		Number:      r.Numero,
		Topic:       r.Tema,
		ArticleCode: r.Articulo,
		Content:     r.Contenido,
		SourceLaw:   r.LeyAsociada,
		Keywords:    r.Keywords,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if r.IsActive != nil {
		a.IsActive = *r.IsActive
	}
	if r.RelevanceScore != nil {
		a.RelevanceScore = *r.RelevanceScore
	} else {
		a.RelevanceScore = RelevanceScore(a.Content)
	}
	if len(a.Keywords) == 0 {
		a.Keywords = ExtractKeywords(a.Content, a.Topic)
	}
	return a
}
