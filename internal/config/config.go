// Package config defines the shape of runtime configuration for the service
// and is populated by Load (see loader.go).
package config

// SearchConfig selects and configures the full-text search backend.
type SearchConfig struct {
	Backend string // "memory", "postgres", "auto", "none"
	DSN     string
	Index   string
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	Backend    string // "memory", "postgres", "qdrant", "auto", "none"
	DSN        string
	Index      string
	Dimensions int
	Metric     string
}

// ChatConfig selects and configures the session-memory backend.
type ChatConfig struct {
	Backend string // "memory", "postgres", "auto", "none"
	DSN     string
}

// DBConfig groups the storage backends behind the persistence layer.
type DBConfig struct {
	DefaultDSN string
	Search     SearchConfig
	Vector     VectorConfig
	Chat       ChatConfig
}

// EmbeddingConfig configures the embedding provider HTTP client.
type EmbeddingConfig struct {
	BaseURL   string
	Path      string
	Model     string
	APIKey    string
	APIHeader string
	Headers   map[string]string
	Timeout   int // seconds
}

// AnthropicPromptCacheConfig controls Anthropic prompt-cache breakpoints.
type AnthropicPromptCacheConfig struct {
	Enabled       bool
	CacheSystem   bool
	CacheTools    bool
	CacheMessages bool
}

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	PromptCache AnthropicPromptCacheConfig
	ExtraParams map[string]any
}

// OpenAIConfig configures the OpenAI-compatible chat/embeddings client.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	SummaryModel    string
	SummaryBaseURL  string
	API             string // "completions" or "responses"
	LogPayloads     bool
	ExtraHeaders    map[string]string
	ExtraParams     map[string]any
	RequestTimeout  int // seconds
}

// LLMClientConfig selects the default generation provider and carries
// per-provider settings.
type LLMClientConfig struct {
	Provider  string // "anthropic" or "openai"
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
}

// AuthConfig configures bearer/API-key based tenant resolution for the
// HTTP API.
type AuthConfig struct {
	SecretKey     string
	TokenExpiry   int // hours
	StaticAPIKeys map[string]string
}

// ClickHouseConfig configures an optional ClickHouse metrics/traces sink.
// Load fills it from the CLICKHOUSE_* variables; no component of the service
// reads it.
type ClickHouseConfig struct {
	DSN            string
	Database       string
	MetricsTable   string
	TracesTable    string
	LogsTable      string
	TimeoutSeconds int
}

// ObsConfig configures OpenTelemetry tracing, metrics, and host
// instrumentation.
type ObsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLP           string
	ClickHouse     ClickHouseConfig
}

// IngestionConfig tunes the ingestion coordinator.
type IngestionConfig struct {
	MaxWorkers      int
	MinContentChars int
	MaxUploadMB     int
}

// CrawlConfig tunes the crawl orchestrator's politeness and concurrency.
type CrawlConfig struct {
	MaxConcurrentFetches int
	RequestDelayMS       int
	MaxDepth             int
	UserAgent            string
	Headless             bool
	RequestTimeoutSeconds int
}

// S3SSEConfig configures server-side encryption for object store writes.
type S3SSEConfig struct {
	Mode     string // "none", "sse-s3", "sse-kms"
	KMSKeyID string
}

// S3Config configures the object store backend used for raw document
// uploads.
type S3Config struct {
	Bucket                string
	Region                string
	Prefix                string
	Endpoint              string
	AccessKey             string
	SecretKey             string
	UsePathStyle          bool
	TLSInsecureSkipVerify bool
	SSE                   S3SSEConfig
}

// TokenizationConfig controls token-count estimation fallbacks.
type TokenizationConfig struct {
	FallbackToHeuristic bool
}

// Config is the fully-resolved runtime configuration for the service,
// populated by Load from environment variables (and an optional .env file).
type Config struct {
	Host     string
	Port     int
	DataPath string
	Workdir  string

	LogLevel    string
	LogPath     string
	LogPayloads bool

	SystemPrompt string

	Databases   DBConfig
	Embedding   EmbeddingConfig
	LLMClient   LLMClientConfig
	OpenAI      OpenAIConfig
	Auth        AuthConfig
	Obs         ObsConfig
	Ingestion   IngestionConfig
	Crawl       CrawlConfig
	ObjectStore S3Config
	Tokenization TokenizationConfig
}
