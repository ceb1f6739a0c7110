package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Cache       CacheConfig      `toml:"cache"`
	Catalogue   CatalogueConfig  `toml:"catalogue"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Search      SearchConfig     `toml:"search"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	RAG         RAGConfig        `toml:"rag"`
	Logging     LoggingConfig    `toml:"logging"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// CacheConfig controls the on-disk fetch cache
type CacheConfig struct {
	Dir     string        `toml:"dir" validate:"required"` // Cache directory path
	TTL     time.Duration `toml:"ttl"`                     // Entry lifetime; zero means no expiry
	Enabled bool          `toml:"enabled"`                 // Wrap remote resources with the cache decorator
}

// CatalogueConfig configures the remote catalogue client
type CatalogueConfig struct {
	BaseURL             string        `toml:"base_url" validate:"required,url"` // Catalogue record endpoint
	SupportingURL       string        `toml:"supporting_url"`                   // Supporting-documents ZIP endpoint
	Formats             []string      `toml:"formats"`                          // Record formats to harvest (default: json, xml)
	Concurrency         int           `toml:"concurrency" validate:"min=1"`     // Max in-flight fetches
	RequestDelay        time.Duration `toml:"request_delay"`                    // Minimum spacing between fetch acquisitions
	RequestTimeout      time.Duration `toml:"request_timeout"`                  // Per-request HTTP timeout
	MaxRetries          int           `toml:"max_retries" validate:"min=1"`     // Attempts per request
	RetryBaseDelay      time.Duration `toml:"retry_base_delay"`                 // Exponential backoff base
	Username            string        `toml:"username"`                         // Optional basic auth
	Password            string        `toml:"password"`
	FetchSupportingDocs bool          `toml:"fetch_supporting_docs"` // Also harvest the supporting-documents ZIP
}

// PipelineConfig configures the ETL run behaviour
type PipelineConfig struct {
	BatchSize      int    `toml:"batch_size" validate:"min=1"` // Datasets per bulk store commit
	StopOnError    bool   `toml:"stop_on_error"`               // Stop scheduling commits after first parse/store failure
	CheckpointPath string `toml:"checkpoint_path"`             // Resumable checkpoint file; empty disables resumability
}

// SearchConfig contains hybrid search tuning
type SearchConfig struct {
	SemanticLimit  int                  `toml:"semantic_limit" validate:"min=1"` // Candidates from the vector side
	KeywordLimit   int                  `toml:"keyword_limit" validate:"min=1"`  // Candidates from the keyword side
	SemanticWeight float64              `toml:"semantic_weight"`                 // RRF weight for semantic ranks
	KeywordWeight  float64              `toml:"keyword_weight"`                  // RRF weight for keyword ranks
	RRFK           int                  `toml:"rrf_k"`                           // RRF rank constant (60 by convention)
	ExactBoost     float64              `toml:"exact_boost"`                     // Additive boost for exact title match
	MinScore       float64              `toml:"min_score"`                       // Vector similarity floor
	Advanced       AdvancedSearchConfig `toml:"advanced"`
}

// AdvancedSearchConfig controls the opt-in overlay on the fused results
type AdvancedSearchConfig struct {
	Enabled       bool    `toml:"enabled"`        // Apply expansion + field rescore + rerank
	TitleWeight   float64 `toml:"title_weight"`   // Field-weighted rescore boost for title matches
	KeywordWeight float64 `toml:"keyword_weight"` // Field-weighted rescore boost for keyword matches
	RerankTopN    int     `toml:"rerank_top_n"`   // Results passed to the reranker
}

// EmbeddingsConfig configures the embedding service and background sweep
type EmbeddingsConfig struct {
	Host       string `toml:"host"`       // Ollama endpoint
	Model      string `toml:"model"`      // Embedding model name
	Dimensions int    `toml:"dimensions"` // Fixed vector dimension for the model
	BatchSize  int    `toml:"batch_size" validate:"min=1"`
	Schedule   string `toml:"schedule"` // Cron schedule for the background sweep; empty disables
}

// RAGConfig configures retrieval-augmented answering
type RAGConfig struct {
	TopK            int     `toml:"top_k" validate:"min=1"`
	MinRelevance    float64 `toml:"min_relevance"`
	MaxContextChars int     `toml:"max_context_chars" validate:"min=1"`
	Model           string  `toml:"model"` // Generator model; empty uses the formatted fallback
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Cache: CacheConfig{
			Dir:     "./data/cache",
			TTL:     24 * time.Hour,
			Enabled: true,
		},
		Catalogue: CatalogueConfig{
			BaseURL:        "https://catalogue.ceh.ac.uk",
			SupportingURL:  "https://data-package.ceh.ac.uk/sd",
			Formats:        []string{"json", "xml"},
			Concurrency:    3,
			RequestDelay:   300 * time.Millisecond,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
		},
		Pipeline: PipelineConfig{
			BatchSize:      20,
			StopOnError:    false,
			CheckpointPath: "./data/checkpoint.json",
		},
		Search: SearchConfig{
			SemanticLimit:  50,
			KeywordLimit:   50,
			SemanticWeight: 1.0,
			KeywordWeight:  1.0,
			RRFK:           60,
			ExactBoost:     10.0,
			MinScore:       0.0,
			Advanced: AdvancedSearchConfig{
				Enabled:       false,
				TitleWeight:   2.0,
				KeywordWeight: 1.5,
				RerankTopN:    10,
			},
		},
		Embeddings: EmbeddingsConfig{
			Host:       "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
			BatchSize:  32,
		},
		RAG: RAGConfig{
			TopK:            5,
			MinRelevance:    0.3,
			MaxContextChars: 12000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GEOCAT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("GEOCAT_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if dir := os.Getenv("GEOCAT_CACHE_DIR"); dir != "" {
		config.Cache.Dir = dir
	}
	if ttl := os.Getenv("GEOCAT_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	if baseURL := os.Getenv("GEOCAT_CATALOGUE_URL"); baseURL != "" {
		config.Catalogue.BaseURL = baseURL
	}
	if sdURL := os.Getenv("GEOCAT_SUPPORTING_URL"); sdURL != "" {
		config.Catalogue.SupportingURL = sdURL
	}
	if concurrency := os.Getenv("GEOCAT_CATALOGUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Catalogue.Concurrency = c
		}
	}
	if delay := os.Getenv("GEOCAT_CATALOGUE_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Catalogue.RequestDelay = d
		}
	}
	if username := os.Getenv("GEOCAT_CATALOGUE_USERNAME"); username != "" {
		config.Catalogue.Username = username
	}
	if password := os.Getenv("GEOCAT_CATALOGUE_PASSWORD"); password != "" {
		config.Catalogue.Password = password
	}

	if host := os.Getenv("GEOCAT_OLLAMA_HOST"); host != "" {
		config.Embeddings.Host = host
	}
	if model := os.Getenv("GEOCAT_EMBEDDING_MODEL"); model != "" {
		config.Embeddings.Model = model
	}

	if level := os.Getenv("GEOCAT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
