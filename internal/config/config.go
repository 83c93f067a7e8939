// Package config provides configuration loading and structs for the contract
// analysis service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	LLM        LLMConfig        `yaml:"llm"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Search     SearchConfig     `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the keyword index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// BleveIndexPath is the on-disk keyword index location. Empty means an
	// in-memory index rebuilt at startup.
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// CorpusConfig holds the legal article corpus location.
type CorpusConfig struct {
	// Path is a file (.json, .xlsx) or a directory of such files.
	Path string `yaml:"path"`
	// Watch enables rebuilding the article index when corpus files change.
	Watch bool `yaml:"watch"`
}

// LLMConfig holds LLM provider settings. API keys come from the provider's
// environment variable (ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY).
type LLMConfig struct {
	// Enabled gates all LLM calls. When false, segmentation uses the regex
	// fallback and summaries use the generic fallback.
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider"` // anthropic | openai | google
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// TimeoutSeconds bounds each LLM call; a slow call never stalls the
	// whole contract analysis.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ClassifierConfig holds the pre-fitted clause classifier settings.
type ClassifierConfig struct {
	// Backend selects the model format: "linear" (exported TF-IDF + logistic
	// regression weights) or "onnx" (requires CGO and onnxruntime).
	Backend   string `yaml:"backend"`
	ModelPath string `yaml:"model_path"`
	// MaxTokens is the fixed input length for the ONNX backend.
	MaxTokens int `yaml:"max_tokens"`
}

// AnalysisConfig holds score fusion and pipeline settings. The fusion weights
// changed between versions of the source system and are deliberately
// configurable rather than hardcoded.
type AnalysisConfig struct {
	// AbusiveMLWeight / AbusiveLLMWeight apply when the LLM flags the clause.
	AbusiveMLWeight  float64 `yaml:"abusive_ml_weight"`
	AbusiveLLMWeight float64 `yaml:"abusive_llm_weight"`
	// StandardMLWeight / StandardLLMWeight apply otherwise.
	StandardMLWeight  float64 `yaml:"standard_ml_weight"`
	StandardLLMWeight float64 `yaml:"standard_llm_weight"`
	// MLThreshold is the classifier probability above which a clause is
	// flagged regardless of the LLM verdict (OR policy).
	MLThreshold float64 `yaml:"ml_threshold"`
	// ClauseWorkers bounds per-contract clause processing concurrency.
	ClauseWorkers int `yaml:"clause_workers"`
	// ArticlesPerClause bounds retrieval per abusive clause for summaries.
	ArticlesPerClause int `yaml:"articles_per_clause"`
	// RAGEnabled gates citation-grounded summaries.
	RAGEnabled bool `yaml:"rag_enabled"`
	// MinFragmentLength discards segmentation fragments shorter than this.
	MinFragmentLength int `yaml:"min_fragment_length"`
}

// SearchConfig holds article index settings.
type SearchConfig struct {
	DefaultMaxResults    int     `yaml:"default_max_results"`
	DefaultMinSimilarity float64 `yaml:"default_min_similarity"`
	// MaxFeatures caps the TF-IDF vocabulary size.
	MaxFeatures int `yaml:"max_features"`
	// MaxDocFreq drops terms appearing in more than this fraction of articles.
	MaxDocFreq float64 `yaml:"max_doc_freq"`
	// NgramMax is the maximum n-gram length for the vectorizer.
	NgramMax int `yaml:"ngram_max"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Storage.BleveIndexPath != "" {
		cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	}
	if cfg.Corpus.Path != "" {
		cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	}
	if cfg.Classifier.ModelPath != "" {
		cfg.Classifier.ModelPath = expandPath(cfg.Classifier.ModelPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
