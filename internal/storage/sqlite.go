package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS legal_articles (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		topic TEXT NOT NULL,
		article_code TEXT NOT NULL,
		content TEXT NOT NULL,
		source_law TEXT NOT NULL,
		keywords TEXT,
		relevance_score REAL NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_articles_topic ON legal_articles(topic);
	CREATE INDEX IF NOT EXISTS idx_articles_active ON legal_articles(is_active);

	CREATE TABLE IF NOT EXISTS contract_analyses (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		total_clauses INTEGER NOT NULL,
		abusive_count INTEGER NOT NULL,
		risk_score REAL NOT NULL,
		risk_level TEXT NOT NULL,
		executive_summary TEXT,
		affected_laws TEXT,
		recommendations TEXT,
		processing_time_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON contract_analyses(created_at);

	CREATE TABLE IF NOT EXISTS analysis_clauses (
		analysis_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		text TEXT NOT NULL,
		ml_probability REAL NOT NULL,
		judgment TEXT,
		fused_risk REAL NOT NULL,
		is_abusive INTEGER NOT NULL,
		PRIMARY KEY (analysis_id, position),
		FOREIGN KEY (analysis_id) REFERENCES contract_analyses(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		results_count INTEGER NOT NULL,
		search_method TEXT NOT NULL,
		elapsed_ms REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveArticle upserts one article.
func (s *SQLiteStorage) SaveArticle(ctx context.Context, a *models.LegalArticle) error {
	keywordsJSON, err := json.Marshal(a.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO legal_articles
		   (id, number, topic, article_code, content, source_law, keywords, relevance_score, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   number=excluded.number, topic=excluded.topic, article_code=excluded.article_code,
		   content=excluded.content, source_law=excluded.source_law, keywords=excluded.keywords,
		   relevance_score=excluded.relevance_score, is_active=excluded.is_active, updated_at=excluded.updated_at`,
		a.ID, a.Number, a.Topic, a.ArticleCode, a.Content, a.SourceLaw,
		string(keywordsJSON), a.RelevanceScore, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// SaveArticles upserts articles in one transaction.
func (s *SQLiteStorage) SaveArticles(ctx context.Context, articles []*models.LegalArticle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO legal_articles
		   (id, number, topic, article_code, content, source_law, keywords, relevance_score, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   number=excluded.number, topic=excluded.topic, article_code=excluded.article_code,
		   content=excluded.content, source_law=excluded.source_law, keywords=excluded.keywords,
		   relevance_score=excluded.relevance_score, is_active=excluded.is_active, updated_at=excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, a := range articles {
		keywordsJSON, err := json.Marshal(a.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords for %s: %w", a.ID, err)
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.Number, a.Topic, a.ArticleCode, a.Content, a.SourceLaw,
			string(keywordsJSON), a.RelevanceScore, a.IsActive, a.CreatedAt, a.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetArticle returns one article by ID.
func (s *SQLiteStorage) GetArticle(ctx context.Context, id string) (*models.LegalArticle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, number, topic, article_code, content, source_law, keywords, relevance_score, is_active, created_at, updated_at
		 FROM legal_articles WHERE id = ?`, id,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article not found: %s", id)
	}
	return a, err
}

// ListArticles returns all articles, optionally only the active ones,
// ordered by article number.
func (s *SQLiteStorage) ListArticles(ctx context.Context, onlyActive bool) ([]*models.LegalArticle, error) {
	query := `SELECT id, number, topic, article_code, content, source_law, keywords, relevance_score, is_active, created_at, updated_at
	          FROM legal_articles`
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY number`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.LegalArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// CountArticles returns the total number of stored articles.
func (s *SQLiteStorage) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM legal_articles`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*models.LegalArticle, error) {
	var a models.LegalArticle
	var keywordsJSON string
	if err := r.Scan(
		&a.ID, &a.Number, &a.Topic, &a.ArticleCode, &a.Content, &a.SourceLaw,
		&keywordsJSON, &a.RelevanceScore, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if keywordsJSON != "" {
		if err := json.Unmarshal([]byte(keywordsJSON), &a.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}
	return &a, nil
}

// SaveAnalysis inserts an analysis and its clause rows in one transaction.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *models.ContractAnalysis) error {
	lawsJSON, err := json.Marshal(a.AffectedLaws)
	if err != nil {
		return fmt.Errorf("failed to marshal affected laws: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contract_analyses
		   (id, status, total_clauses, abusive_count, risk_score, risk_level,
		    executive_summary, affected_laws, recommendations, processing_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Status, a.TotalClauses, a.AbusiveCount, a.RiskScore, a.RiskLevel,
		a.ExecutiveSummary, string(lawsJSON), a.Recommendations,
		a.ProcessingTime.Milliseconds(), a.CreatedAt,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analysis_clauses
		   (analysis_id, position, label, text, ml_probability, judgment, fused_risk, is_abusive)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range a.Clauses {
		var judgmentJSON []byte
		if c.Judgment != nil {
			if judgmentJSON, err = json.Marshal(c.Judgment); err != nil {
				return fmt.Errorf("failed to marshal judgment for clause %d: %w", i, err)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID, i, c.Label, c.Text, c.MLProbability, string(judgmentJSON), c.FusedRisk, c.IsAbusive,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAnalysis returns an analysis with its clauses in document order.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*models.ContractAnalysis, error) {
	a, err := s.scanAnalysisRow(s.db.QueryRowContext(ctx,
		`SELECT id, status, total_clauses, abusive_count, risk_score, risk_level,
		        executive_summary, affected_laws, recommendations, processing_time_ms, created_at
		 FROM contract_analyses WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT label, text, ml_probability, judgment, fused_risk, is_abusive
		 FROM analysis_clauses WHERE analysis_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Clause
		var judgmentJSON string
		if err := rows.Scan(&c.Label, &c.Text, &c.MLProbability, &judgmentJSON, &c.FusedRisk, &c.IsAbusive); err != nil {
			return nil, err
		}
		if judgmentJSON != "" {
			var j models.LLMJudgment
			if err := json.Unmarshal([]byte(judgmentJSON), &j); err != nil {
				return nil, fmt.Errorf("failed to unmarshal judgment: %w", err)
			}
			c.Judgment = &j
		}
		a.Clauses = append(a.Clauses, &c)
	}
	return a, rows.Err()
}

// ListAnalyses returns analyses newest first, without clause rows.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, offset, limit int) ([]*models.ContractAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, total_clauses, abusive_count, risk_score, risk_level,
		        executive_summary, affected_laws, recommendations, processing_time_ms, created_at
		 FROM contract_analyses ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*models.ContractAnalysis
	for rows.Next() {
		a, err := s.scanAnalysisRow(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

func (s *SQLiteStorage) scanAnalysisRow(r rowScanner) (*models.ContractAnalysis, error) {
	var a models.ContractAnalysis
	var lawsJSON string
	var processingMs int64
	if err := r.Scan(
		&a.ID, &a.Status, &a.TotalClauses, &a.AbusiveCount, &a.RiskScore, &a.RiskLevel,
		&a.ExecutiveSummary, &lawsJSON, &a.Recommendations, &processingMs, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	if lawsJSON != "" {
		if err := json.Unmarshal([]byte(lawsJSON), &a.AffectedLaws); err != nil {
			return nil, fmt.Errorf("failed to unmarshal affected laws: %w", err)
		}
	}
	return &a, nil
}

// CountAnalyses returns the total number of stored analyses.
func (s *SQLiteStorage) CountAnalyses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contract_analyses`).Scan(&count)
	return count, err
}

// RecordSearch appends one row to the search history.
func (s *SQLiteStorage) RecordSearch(ctx context.Context, rec *SearchRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (query, results_count, search_method, elapsed_ms)
		 VALUES (?, ?, ?, ?)`,
		rec.Query, rec.ResultsCount, rec.SearchMethod, rec.ElapsedMs,
	)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
