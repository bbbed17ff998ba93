package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Embedding     EmbeddingConfig
	VectorIndex   VectorIndexConfig
	Generation    GenerationConfig
	Pipeline      PipelineConfig
	Tracker       TrackerConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Host    string // Ollama base URL
	Model   string
	Timeout time.Duration
}

// VectorIndexConfig holds qdrant vector index configuration
type VectorIndexConfig struct {
	Host       string
	Port       int // gRPC port
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// GenerationConfig holds generation model configuration
type GenerationConfig struct {
	Backend         string // provider registry key
	Host            string // Ollama base URL
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

// PipelineConfig holds the retrieval/assembly tuning knobs.
// The defaults follow the values the knowledge base was tuned with.
type PipelineConfig struct {
	RelevanceThreshold float64
	DefaultTopK        int
	MaxTopK            int
	MaxContextDocs     int
	MaxCharsPerDoc     int
}

// TrackerConfig holds request tracker retention configuration
type TrackerConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 240*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Embedding: EmbeddingConfig{
			Host:    getEnv("EMBEDDING_HOST", getEnv("OLLAMA_HOST", "http://localhost:11434")),
			Model:   getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Timeout: getEnvAsDuration("EMBEDDING_TIMEOUT", 60*time.Second),
		},
		VectorIndex: VectorIndexConfig{
			Host:       getEnv("QDRANT_HOST", "localhost"),
			Port:       getEnvAsInt("QDRANT_PORT", 6334),
			Collection: getEnv("QDRANT_COLLECTION", "playbook"),
			Dimension:  getEnvAsInt("VECTOR_DIMENSION", 768),
			Timeout:    getEnvAsDuration("RETRIEVAL_TIMEOUT", 30*time.Second),
		},
		Generation: GenerationConfig{
			Backend:         getEnv("GENERATION_BACKEND", "ollama"),
			Host:            getEnv("GENERATION_HOST", getEnv("OLLAMA_HOST", "http://localhost:11434")),
			Model:           getEnv("GENERATION_MODEL", "llama3.2:3b"),
			Temperature:     getEnvAsFloat("GENERATION_TEMPERATURE", 0.1),
			MaxOutputTokens: getEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS", 512),
			Timeout:         getEnvAsDuration("GENERATION_TIMEOUT", 180*time.Second),
		},
		Pipeline: PipelineConfig{
			RelevanceThreshold: getEnvAsFloat("RELEVANCE_THRESHOLD", 0.7),
			DefaultTopK:        getEnvAsInt("DEFAULT_TOP_K", 5),
			MaxTopK:            getEnvAsInt("MAX_TOP_K", 10),
			MaxContextDocs:     getEnvAsInt("MAX_CONTEXT_DOCS", 3),
			MaxCharsPerDoc:     getEnvAsInt("MAX_CHARS_PER_DOC", 500),
		},
		Tracker: TrackerConfig{
			TTL:             getEnvAsDuration("TRACKER_TTL", time.Hour),
			CleanupInterval: getEnvAsDuration("TRACKER_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are consistent
func (c *Config) Validate() error {
	if c.Pipeline.RelevanceThreshold < 0 || c.Pipeline.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance threshold must be in [0,1], got %v", c.Pipeline.RelevanceThreshold)
	}
	if c.Pipeline.DefaultTopK < 1 {
		return fmt.Errorf("default top_k must be positive")
	}
	if c.Pipeline.MaxTopK < c.Pipeline.DefaultTopK {
		return fmt.Errorf("max top_k (%d) must not be below default top_k (%d)",
			c.Pipeline.MaxTopK, c.Pipeline.DefaultTopK)
	}
	if c.Pipeline.MaxContextDocs < 1 {
		return fmt.Errorf("max context docs must be positive")
	}
	if c.Pipeline.MaxCharsPerDoc < 1 {
		return fmt.Errorf("max chars per doc must be positive")
	}
	if c.VectorIndex.Dimension < 1 {
		return fmt.Errorf("vector dimension must be positive")
	}
	if c.VectorIndex.Collection == "" {
		return fmt.Errorf("vector index collection name is required")
	}
	if c.Generation.Backend == "" {
		return fmt.Errorf("generation backend is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the qdrant gRPC address
func (c *VectorIndexConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
