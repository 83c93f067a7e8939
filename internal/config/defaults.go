package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/contralex/data/contralex.db"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 45
	}
	if cfg.Classifier.Backend == "" {
		cfg.Classifier.Backend = "linear"
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = 256
	}
	if cfg.Analysis.AbusiveMLWeight == 0 {
		cfg.Analysis.AbusiveMLWeight = 0.6
	}
	if cfg.Analysis.AbusiveLLMWeight == 0 {
		cfg.Analysis.AbusiveLLMWeight = 0.4
	}
	if cfg.Analysis.StandardMLWeight == 0 {
		cfg.Analysis.StandardMLWeight = 0.8
	}
	if cfg.Analysis.StandardLLMWeight == 0 {
		cfg.Analysis.StandardLLMWeight = 0.2
	}
	if cfg.Analysis.MLThreshold == 0 {
		cfg.Analysis.MLThreshold = 0.5
	}
	if cfg.Analysis.ClauseWorkers == 0 {
		cfg.Analysis.ClauseWorkers = 4
	}
	if cfg.Analysis.ArticlesPerClause == 0 {
		cfg.Analysis.ArticlesPerClause = 3
	}
	if cfg.Analysis.MinFragmentLength == 0 {
		cfg.Analysis.MinFragmentLength = 20
	}
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = 5
	}
	if cfg.Search.DefaultMinSimilarity == 0 {
		cfg.Search.DefaultMinSimilarity = 0.1
	}
	if cfg.Search.MaxFeatures == 0 {
		cfg.Search.MaxFeatures = 3000
	}
	if cfg.Search.MaxDocFreq == 0 {
		cfg.Search.MaxDocFreq = 0.8
	}
	if cfg.Search.NgramMax == 0 {
		cfg.Search.NgramMax = 2
	}
}
