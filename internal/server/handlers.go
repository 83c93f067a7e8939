package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/storage"
)

// maxUploadBytes caps contract uploads. Real contracts are a few hundred KB
// at most; anything bigger is not a contract.
const maxUploadBytes = 10 << 20

type analyzeRequest struct {
	Text string `json:"text"`
}

// handleAnalyze accepts either a JSON body {"text": "..."} or a multipart
// form with a "file" field (.pdf, .docx, .txt). The full analysis is
// persisted before responding.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	text, err := s.contractText(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		s.respondError(w, http.StatusBadRequest, "contract text is required")
		return
	}

	analysis := s.analyzer.Analyze(r.Context(), text)

	if err := s.storage.SaveAnalysis(r.Context(), analysis); err != nil {
		// The analysis itself succeeded; losing the record is not worth a 500.
		s.logger.Error("failed to persist analysis",
			zap.String("analysis_id", analysis.ID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

// contractText extracts the contract text from the request, from the uploaded
// file when the body is multipart, from the JSON body otherwise.
func (s *Server) contractText(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", errInvalidUpload
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", errInvalidUpload
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return "", errInvalidUpload
		}
		ext := strings.ToLower(filepath.Ext(header.Filename))
		s.logger.Debug("analyze file upload",
			zap.String("filename", header.Filename), zap.Int("bytes", len(content)))
		text, err := s.extractor.ExtractBytes(content, ext)
		if err != nil {
			return "", errExtractFailed
		}
		return text, nil
	}

	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return "", errInvalidBody
	}
	return req.Text, nil
}

var (
	errInvalidBody   = errors.New("invalid request body")
	errInvalidUpload = errors.New("invalid file upload")
	errExtractFailed = errors.New("could not extract text from file")
)

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	analysis, err := s.storage.GetAnalysis(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "analysis not found")
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	analyses, err := s.storage.ListAnalyses(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list analyses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountAnalyses(r.Context())
	if err != nil {
		s.logger.Error("count analyses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": analyses,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

func (s *Server) handleSearchArticles(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("article search request",
		zap.String("query", query.Query), zap.Int("max_results", query.MaxResults))

	start := time.Now()
	results, err := s.index.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("article search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	elapsed := time.Since(start)

	method := "semantic"
	for _, res := range results {
		if res.SearchMethod == models.MethodHybrid {
			method = "hybrid"
			break
		}
	}
	if err := s.storage.RecordSearch(r.Context(), &storage.SearchRecord{
		Query:        query.Query,
		ResultsCount: len(results),
		SearchMethod: method,
		ElapsedMs:    float64(elapsed.Microseconds()) / 1000,
	}); err != nil {
		s.logger.Warn("failed to record search", zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":      query.Query,
		"results":    results,
		"total":      len(results),
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, ok := s.index.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "article not found")
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

func (s *Server) handleArticleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.index.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	articleCount, err := s.storage.CountArticles(ctx)
	if err != nil {
		s.logger.Error("status: count articles failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	analysisCount, err := s.storage.CountAnalyses(ctx)
	if err != nil {
		s.logger.Error("status: count analyses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articleCount,
		"analyses": analysisCount,
		"index":    s.index.Stats(),
	})
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
