// Package main is the ContraLex CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Armandogl14/Proyecto-grado-ICC/internal/analyzer"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/classify"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/config"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/corpus"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/extract"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/index"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/llm"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/models"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/segment"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/server"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/storage"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/summary"
	"github.com/Armandogl14/Proyecto-grado-ICC/internal/watcher"
	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/contralex/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "contralex server" from the project dir uses the project's
// config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "search":
		runSearch()
	case "load-articles":
		runLoadArticles()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("contralex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var corpusWatcher *watcher.Watcher
	if cfg.Corpus.Watch && cfg.Corpus.Path != "" {
		corpusWatcher = watcher.New(cfg.Corpus.Path, func() {
			if err := components.ReloadCorpus(context.Background(), cfg.Corpus.Path); err != nil {
				logger.Error("corpus reload failed", zap.Error(err))
			}
		}, logger)
		if err := corpusWatcher.Start(); err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		defer corpusWatcher.Stop()
	}

	srv := server.NewServer(
		components.Analyzer,
		components.Index,
		components.Storage,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: contralex analyze [flags] <contract-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	text, err := extract.NewExtractor().Extract(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read contract: %v\n", err)
		os.Exit(1)
	}

	analysis := components.Analyzer.Analyze(context.Background(), text)
	if err := components.Storage.SaveAnalysis(context.Background(), analysis); err != nil {
		logger.Warn("failed to persist analysis", zap.Error(err))
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printAnalysis(analysis)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printAnalysis(a *models.ContractAnalysis) {
	fmt.Printf("analysis_id:    %s\n", a.ID)
	fmt.Printf("status:         %s\n", a.Status)
	if a.Status != models.StatusCompleted {
		fmt.Printf("\n%s\n", a.ExecutiveSummary)
		return
	}
	fmt.Printf("total_clauses:  %d\n", a.TotalClauses)
	fmt.Printf("abusive_count:  %d\n", a.AbusiveCount)
	fmt.Printf("risk_score:     %.2f (%s)\n", a.RiskScore, a.RiskLevel)
	fmt.Println()
	for _, c := range a.Clauses {
		marker := " "
		if c.IsAbusive {
			marker = "!"
		}
		fmt.Printf("%s [%s] riesgo %.2f  %s\n", marker, c.Label, c.FusedRisk, utils.Truncate(c.Text, 80))
	}
	if a.ExecutiveSummary != "" {
		fmt.Printf("\n%s\n", a.ExecutiveSummary)
	}
	if len(a.AffectedLaws) > 0 {
		fmt.Println("\nLeyes aplicables:")
		for _, law := range a.AffectedLaws {
			fmt.Printf("  - %s\n", law)
		}
	}
	if a.Recommendations != "" {
		fmt.Printf("\n%s\n", a.Recommendations)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search the local index directly)")
	limit := fs.Int("limit", 5, "number of results")
	topic := fs.String("topic", "", "restrict results to a topic")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: contralex search [flags] <query>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Println("Usage: contralex search [flags] <query>")
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:       queryStr,
		TopicFilter: *topic,
		MaxResults:  *limit,
	}

	var results []*models.SearchResult
	if *serverURL != "" {
		res, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		results = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		results, err = components.Index.Search(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if len(results) == 0 {
			fmt.Println("No se encontraron artículos.")
			return
		}
		for i, r := range results {
			fmt.Printf("%d. %s - %s  (sim %.2f, %s)\n", i+1,
				r.Article.SourceLaw, r.Article.ArticleCode, r.SimilarityScore, r.SearchMethod)
			fmt.Printf("   %s\n", utils.Truncate(r.Article.Content, 160))
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) ([]*models.SearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/articles/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Results []*models.SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Results, nil
}

func runLoadArticles() {
	fs := flag.NewFlagSet("load-articles", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	path := cfg.Corpus.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Println("Usage: contralex load-articles [flags] <file-or-directory>")
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	articles, err := corpus.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load corpus: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.SaveArticles(context.Background(), articles); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save articles: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d article(s) from %s\n", len(articles), path)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use local storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		_, _ = io.Copy(os.Stdout, resp.Body)
		fmt.Println()
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	articles, err := store.CountArticles(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count articles failed: %v\n", err)
		os.Exit(1)
	}
	analyses, err := store.CountAnalyses(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count analyses failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("articles:  %d\n", articles)
	fmt.Printf("analyses:  %d\n", analyses)
	fmt.Printf("database:  %s\n", cfg.Storage.DatabasePath)
}

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Classifier classify.Classifier
	Index      *index.ArticleIndex
	Analyzer   *analyzer.Analyzer
	logger     *zap.Logger
}

func (c *Components) Close() {
	if c.Classifier != nil {
		_ = c.Classifier.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// ReloadCorpus re-reads the corpus from path and rebuilds the article index
// and the persisted article set.
func (c *Components) ReloadCorpus(ctx context.Context, path string) error {
	articles, err := corpus.Load(path)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if err := c.Index.Build(ctx, articles); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if err := c.Storage.SaveArticles(ctx, articles); err != nil {
		return fmt.Errorf("persist articles: %w", err)
	}
	c.logger.Info("corpus reloaded", zap.Int("articles", len(articles)))
	return nil
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var classifier classify.Classifier
	classifier, err = classify.New(&cfg.Classifier)
	if err != nil {
		// Degraded mode: analysis still runs on the LLM signal alone.
		logger.Warn("classifier unavailable, using neutral scores", zap.Error(err))
		classifier = nil
	}

	var client *llm.Client
	if cfg.LLM.Enabled {
		client, err = llm.NewClient(&cfg.LLM)
		if err != nil {
			logger.Warn("LLM unavailable, using fallback strategies", zap.Error(err))
			client = nil
		}
	}

	var indexOpts []index.Option
	if cfg.Storage.BleveIndexPath != "" {
		indexOpts = append(indexOpts, index.WithKeywordPath(cfg.Storage.BleveIndexPath))
	}
	idx := index.NewArticleIndex(&cfg.Search, logger, indexOpts...)
	articles, err := loadArticles(cfg, store, logger)
	if err != nil {
		logger.Warn("no article corpus loaded, search and RAG disabled", zap.Error(err))
	} else if err := idx.Build(context.Background(), articles); err != nil {
		return nil, fmt.Errorf("failed to build article index: %w", err)
	}

	segmenter := segment.NewSegmenter(client, cfg.Analysis.MinFragmentLength, logger)
	validator := llm.NewValidator(client, logger)
	generator := summary.NewGenerator(client, idx, &cfg.Analysis, &cfg.Search, logger)
	an := analyzer.New(segmenter, classifier, validator, generator, &cfg.Analysis, logger)

	return &Components{
		Storage:    store,
		Classifier: classifier,
		Index:      idx,
		Analyzer:   an,
		logger:     logger,
	}, nil
}

// loadArticles reads the article corpus, preferring the corpus files and
// falling back to previously persisted articles. Freshly loaded articles are
// persisted so the database mirrors the corpus.
func loadArticles(cfg *config.Config, store storage.Storage, logger *zap.Logger) ([]*models.LegalArticle, error) {
	if cfg.Corpus.Path != "" {
		articles, err := corpus.Load(cfg.Corpus.Path)
		if err == nil {
			if saveErr := store.SaveArticles(context.Background(), articles); saveErr != nil {
				logger.Warn("failed to persist corpus articles", zap.Error(saveErr))
			}
			return articles, nil
		}
		logger.Warn("corpus load failed, trying stored articles", zap.Error(err))
	}
	articles, err := store.ListArticles(context.Background(), true)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles available")
	}
	return articles, nil
}

func printUsage() {
	fmt.Println(`contralex - Análisis de contratos y búsqueda de artículos legales

Usage:
  contralex server [flags]                Start the HTTP server
  contralex analyze [flags] <file>        Analyze a contract file (.pdf, .docx, .txt)
  contralex search [flags] <query>        Search legal articles
  contralex load-articles [flags] [path]  Load the article corpus into storage
  contralex status [flags]                Show corpus and analysis counts
  contralex version                       Show version
  contralex help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/contralex/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Search Flags:
  --config string    Config file path
  --server string    Server URL (empty = search the local index directly)
  --limit int        Number of results (default: 5)
  --topic string     Restrict results to a topic (e.g. alquileres)
  --output string    Output format: text or json (default: text)

Examples:
  contralex server
  contralex analyze contrato.docx
  contralex analyze --output json contrato.pdf
  contralex search aumento de alquiler
  contralex search --topic hipotecas "garantía del préstamo"
  contralex load-articles data/articulos.json
  contralex status`)
}
