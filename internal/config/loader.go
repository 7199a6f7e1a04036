package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables (optionally a .env
// file in the working directory).
func Load() (Config, error) {
	// Use Overload so .env values override existing OS environment variables,
	// so local .env files deterministically control runtime behavior in
	// development unless explicitly overridden.
	_ = godotenv.Overload()

	cfg := Config{}

	// Defaults that are awkward to represent as zero-values.
	cfg.Tokenization.FallbackToHeuristic = true
	cfg.Ingestion.MaxWorkers = 4
	cfg.Ingestion.MinContentChars = 100
	cfg.Ingestion.MaxUploadMB = 25
	cfg.Crawl.MaxConcurrentFetches = 2
	cfg.Crawl.RequestDelayMS = 500
	cfg.Crawl.MaxDepth = 2
	cfg.Crawl.RequestTimeoutSeconds = 30

	cfg.Host = firstNonEmpty(strings.TrimSpace(os.Getenv("HOST")), "0.0.0.0")
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Port = n
		}
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	cfg.DataPath = strings.TrimSpace(os.Getenv("DATA_PATH"))
	cfg.Workdir = firstNonEmpty(strings.TrimSpace(os.Getenv("WORKDIR")), cfg.DataPath)

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))
	if v := strings.TrimSpace(os.Getenv("LOG_PAYLOADS")); v != "" {
		cfg.LogPayloads = parseBool(v)
		cfg.OpenAI.LogPayloads = cfg.LogPayloads
	}

	cfg.SystemPrompt = strings.TrimSpace(os.Getenv("SYSTEM_PROMPT"))

	// LLM provider selection and per-provider credentials.
	cfg.LLMClient.Provider = firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "anthropic")

	cfg.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	cfg.OpenAI.BaseURL = firstNonEmpty(strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")), strings.TrimSpace(os.Getenv("OPENAI_API_BASE_URL")))
	cfg.OpenAI.SummaryModel = strings.TrimSpace(os.Getenv("OPENAI_SUMMARY_MODEL"))
	cfg.OpenAI.SummaryBaseURL = strings.TrimSpace(os.Getenv("OPENAI_SUMMARY_URL"))
	cfg.OpenAI.API = strings.TrimSpace(os.Getenv("OPENAI_API"))
	if v := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.OpenAI.RequestTimeout = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_EXTRA_HEADERS")); v != "" {
		if m, err := parseKeyValueList(v); err == nil {
			cfg.OpenAI.ExtraHeaders = m
		}
	}

	cfg.LLMClient.Anthropic.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.LLMClient.Anthropic.Model = strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL"))
	cfg.LLMClient.Anthropic.BaseURL = strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_PROMPT_CACHE")); v != "" {
		cfg.LLMClient.Anthropic.PromptCache.Enabled = parseBool(v)
	}

	// Telemetry / observability.
	cfg.Obs.ServiceName = firstNonEmpty(strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")), "ragsvc")
	cfg.Obs.ServiceVersion = strings.TrimSpace(os.Getenv("SERVICE_VERSION"))
	cfg.Obs.Environment = firstNonEmpty(strings.TrimSpace(os.Getenv("ENVIRONMENT")), "dev")
	cfg.Obs.OTLP = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	cfg.Obs.ClickHouse.DSN = strings.TrimSpace(os.Getenv("CLICKHOUSE_DSN"))
	cfg.Obs.ClickHouse.Database = strings.TrimSpace(os.Getenv("CLICKHOUSE_DATABASE"))
	cfg.Obs.ClickHouse.MetricsTable = firstNonEmpty(strings.TrimSpace(os.Getenv("CLICKHOUSE_METRICS_TABLE")), "metrics")
	cfg.Obs.ClickHouse.TracesTable = firstNonEmpty(strings.TrimSpace(os.Getenv("CLICKHOUSE_TRACES_TABLE")), "traces")
	cfg.Obs.ClickHouse.LogsTable = firstNonEmpty(strings.TrimSpace(os.Getenv("CLICKHOUSE_LOGS_TABLE")), "logs")
	if v := strings.TrimSpace(os.Getenv("CLICKHOUSE_TIMEOUT_SECONDS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Obs.ClickHouse.TimeoutSeconds = n
		}
	}
	if cfg.Obs.ClickHouse.TimeoutSeconds <= 0 {
		cfg.Obs.ClickHouse.TimeoutSeconds = 5
	}

	// Storage backends.
	cfg.Databases.DefaultDSN = firstNonEmpty(
		strings.TrimSpace(os.Getenv("DATABASE_URL")),
		strings.TrimSpace(os.Getenv("DB_URL")),
		strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
	)
	cfg.Databases.Search.Backend = strings.TrimSpace(os.Getenv("SEARCH_BACKEND"))
	cfg.Databases.Search.DSN = strings.TrimSpace(os.Getenv("SEARCH_DSN"))
	cfg.Databases.Search.Index = strings.TrimSpace(os.Getenv("SEARCH_INDEX"))
	cfg.Databases.Vector.Backend = strings.TrimSpace(os.Getenv("VECTOR_BACKEND"))
	cfg.Databases.Vector.DSN = strings.TrimSpace(os.Getenv("VECTOR_DSN"))
	cfg.Databases.Vector.Index = firstNonEmpty(strings.TrimSpace(os.Getenv("VECTOR_INDEX")), "chunks")
	if v := strings.TrimSpace(os.Getenv("VECTOR_DIMENSIONS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Databases.Vector.Dimensions = n
		}
	}
	cfg.Databases.Vector.Metric = firstNonEmpty(strings.TrimSpace(os.Getenv("VECTOR_METRIC")), "cosine")
	cfg.Databases.Chat.Backend = strings.TrimSpace(os.Getenv("CHAT_BACKEND"))
	cfg.Databases.Chat.DSN = strings.TrimSpace(os.Getenv("CHAT_DSN"))

	if cfg.Databases.Search.Backend == "" {
		cfg.Databases.Search.Backend = defaultBackend(cfg.Databases.DefaultDSN)
	}
	if cfg.Databases.Vector.Backend == "" {
		cfg.Databases.Vector.Backend = defaultBackend(cfg.Databases.DefaultDSN)
	}
	if cfg.Databases.Chat.Backend == "" {
		cfg.Databases.Chat.Backend = defaultBackend(cfg.Databases.DefaultDSN)
	}

	// Embedding provider.
	cfg.Embedding.BaseURL = strings.TrimSpace(os.Getenv("EMBED_BASE_URL"))
	cfg.Embedding.Model = strings.TrimSpace(os.Getenv("EMBED_MODEL"))
	cfg.Embedding.APIKey = strings.TrimSpace(os.Getenv("EMBED_API_KEY"))
	cfg.Embedding.APIHeader = strings.TrimSpace(os.Getenv("EMBED_API_HEADER"))
	if v := strings.TrimSpace(os.Getenv("EMBED_API_HEADERS")); v != "" {
		if m, err := parseKeyValueList(v); err == nil {
			cfg.Embedding.Headers = m
		}
	}
	cfg.Embedding.Path = strings.TrimSpace(os.Getenv("EMBED_PATH"))
	if v := strings.TrimSpace(os.Getenv("EMBED_TIMEOUT")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Embedding.Timeout = n
		}
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.APIHeader == "" {
		cfg.Embedding.APIHeader = "Authorization"
	}
	if cfg.Embedding.Path == "" {
		cfg.Embedding.Path = "/v1/embeddings"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.OpenAI.APIKey
	}

	// Auth.
	cfg.Auth.SecretKey = strings.TrimSpace(os.Getenv("AUTH_SECRET_KEY"))
	if v := strings.TrimSpace(os.Getenv("AUTH_TOKEN_EXPIRY_HOURS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Auth.TokenExpiry = n
		}
	}
	if cfg.Auth.TokenExpiry <= 0 {
		cfg.Auth.TokenExpiry = 72
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_STATIC_API_KEYS")); v != "" {
		if m, err := parseKeyValueList(v); err == nil {
			cfg.Auth.StaticAPIKeys = m
		}
	}

	// Ingestion.
	if v := strings.TrimSpace(os.Getenv("INGEST_MAX_WORKERS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Ingestion.MaxWorkers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("INGEST_MIN_CONTENT_CHARS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Ingestion.MinContentChars = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("INGEST_MAX_UPLOAD_MB")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Ingestion.MaxUploadMB = n
		}
	}

	// Crawl politeness.
	if v := strings.TrimSpace(os.Getenv("CRAWL_MAX_CONCURRENT_FETCHES")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Crawl.MaxConcurrentFetches = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CRAWL_REQUEST_DELAY_MS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Crawl.RequestDelayMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CRAWL_MAX_DEPTH")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Crawl.MaxDepth = n
		}
	}
	cfg.Crawl.UserAgent = firstNonEmpty(strings.TrimSpace(os.Getenv("CRAWL_USER_AGENT")), "ragsvc-crawler/1.0")
	if v := strings.TrimSpace(os.Getenv("CRAWL_HEADLESS")); v != "" {
		cfg.Crawl.Headless = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv("CRAWL_REQUEST_TIMEOUT_SECONDS")); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Crawl.RequestTimeoutSeconds = n
		}
	}

	// Object store (raw document uploads).
	cfg.ObjectStore.Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	cfg.ObjectStore.Region = firstNonEmpty(strings.TrimSpace(os.Getenv("S3_REGION")), "us-east-1")
	cfg.ObjectStore.Prefix = firstNonEmpty(strings.TrimSpace(os.Getenv("S3_PREFIX")), "documents")
	cfg.ObjectStore.Endpoint = strings.TrimSpace(os.Getenv("S3_ENDPOINT"))
	cfg.ObjectStore.AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY"))
	cfg.ObjectStore.SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_KEY"))
	if v := strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")); v != "" {
		cfg.ObjectStore.UsePathStyle = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv("S3_TLS_INSECURE_SKIP_VERIFY")); v != "" {
		cfg.ObjectStore.TLSInsecureSkipVerify = parseBool(v)
	}
	cfg.ObjectStore.SSE.Mode = firstNonEmpty(strings.TrimSpace(os.Getenv("S3_SSE_MODE")), "none")
	cfg.ObjectStore.SSE.KMSKeyID = strings.TrimSpace(os.Getenv("S3_SSE_KMS_KEY_ID"))

	cfg.LLMClient.OpenAI = cfg.OpenAI

	if cfg.LLMClient.Provider == "anthropic" && cfg.LLMClient.Anthropic.APIKey == "" {
		return Config{}, errors.New("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic (set in .env or environment)")
	}
	if cfg.LLMClient.Provider == "openai" && cfg.OpenAI.APIKey == "" {
		return Config{}, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai (set in .env or environment)")
	}

	if cfg.Workdir != "" {
		absWD, err := filepath.Abs(cfg.Workdir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve WORKDIR: %w", err)
		}
		if info, err := os.Stat(absWD); err == nil && !info.IsDir() {
			return Config{}, fmt.Errorf("WORKDIR must be a directory: %s", absWD)
		}
		cfg.Workdir = absWD
	}

	return cfg, nil
}

func defaultBackend(dsn string) string {
	if dsn != "" {
		return "auto"
	}
	return "memory"
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseKeyValueList parses a JSON object string or a comma-separated list of
// key:value / key=value pairs into a map.
func parseKeyValueList(s string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err == nil {
		return m, nil
	}
	m = make(map[string]string)
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if i := strings.Index(p, ":"); i >= 0 {
			m[strings.TrimSpace(p[:i])] = strings.TrimSpace(p[i+1:])
			continue
		}
		if i := strings.Index(p, "="); i >= 0 {
			m[strings.TrimSpace(p[:i])] = strings.TrimSpace(p[i+1:])
		}
	}
	return m, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
