package databases

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"singularityio/internal/config"
)

// NewManager constructs database backends based on configuration.
// Supported backends: memory, none, auto, postgres.
func NewManager(ctx context.Context, cfg config.DBConfig) (Manager, error) {
	var m Manager
	// Resolve DSNs with default fallback
	searchDSN := firstNonEmpty(cfg.Search.DSN, cfg.DefaultDSN)
	vectorDSN := firstNonEmpty(cfg.Vector.DSN, cfg.DefaultDSN)

	// Full-text search
	switch cfg.Search.Backend {
	case "", "memory":
		m.Search = NewMemorySearch()
	case "auto":
		if searchDSN != "" {
			if p, err := newPgPool(ctx, searchDSN); err == nil {
				m.Search = NewPostgresSearch(p)
			} else {
				m.Search = NewMemorySearch()
			}
		} else {
			m.Search = NewMemorySearch()
		}
	case "postgres", "pg":
		if searchDSN == "" {
			return Manager{}, fmt.Errorf("search backend postgres requires DSN")
		}
		p, err := newPgPool(ctx, searchDSN)
		if err != nil {
			return Manager{}, fmt.Errorf("connect postgres (search): %w", err)
		}
		m.Search = NewPostgresSearch(p)
	case "none", "disabled":
		m.Search = noopSearch{}
	default:
		return Manager{}, fmt.Errorf("unsupported search backend: %s", cfg.Search.Backend)
	}
	// Vector store. "qdrant", "postgres" and "auto" (when a Postgres pool can
	// be opened on the DSN) wrap the accelerated backend with a linear
	// in-memory fallback so a single backend error degrades search quality,
	// not availability.
	switch cfg.Vector.Backend {
	case "", "memory":
		m.Vector = NewMemoryVector()
	case "auto":
		if vectorDSN != "" {
			if p, err := newPgPool(ctx, vectorDSN); err == nil {
				m.Vector = NewFallbackVectorStore(NewPostgresVector(p, cfg.Vector.Dimensions, cfg.Vector.Metric), NewMemoryVector())
			} else {
				m.Vector = NewMemoryVector()
			}
		} else {
			m.Vector = NewMemoryVector()
		}
	case "postgres", "pgvector", "pg":
		if vectorDSN == "" {
			return Manager{}, fmt.Errorf("vector backend postgres requires DSN")
		}
		p, err := newPgPool(ctx, vectorDSN)
		if err != nil {
			return Manager{}, fmt.Errorf("connect postgres (vector): %w", err)
		}
		m.Vector = NewFallbackVectorStore(NewPostgresVector(p, cfg.Vector.Dimensions, cfg.Vector.Metric), NewMemoryVector())
	case "qdrant":
		if vectorDSN == "" {
			return Manager{}, fmt.Errorf("vector backend qdrant requires DSN")
		}
		qv, err := NewQdrantVector(vectorDSN, cfg.Vector.Index, cfg.Vector.Dimensions, cfg.Vector.Metric)
		if err != nil {
			return Manager{}, fmt.Errorf("connect qdrant (vector): %w", err)
		}
		m.Vector = NewFallbackVectorStore(qv, NewMemoryVector())
	case "none", "disabled":
		m.Vector = noopVector{}
	default:
		return Manager{}, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}

	// Session memory. Postgres-backed selections are wrapped in a
	// SessionMemory ring buffer + background writer so request handlers
	// never block on the durable store for an active conversation.
	chatDSN := firstNonEmpty(cfg.Chat.DSN, cfg.DefaultDSN)
	switch cfg.Chat.Backend {
	case "", "memory":
		m.Chat = newMemoryChatStore()
	case "auto":
		if chatDSN != "" {
			if p, err := newPgPool(ctx, chatDSN); err == nil {
				m.Chat = NewSessionMemory(NewPostgresChatStore(p), 0, 0)
			} else {
				m.Chat = newMemoryChatStore()
			}
		} else {
			m.Chat = newMemoryChatStore()
		}
	case "postgres", "pg":
		if chatDSN == "" {
			return Manager{}, fmt.Errorf("chat backend postgres requires DSN")
		}
		p, err := newPgPool(ctx, chatDSN)
		if err != nil {
			return Manager{}, fmt.Errorf("connect postgres (chat): %w", err)
		}
		m.Chat = NewSessionMemory(NewPostgresChatStore(p), 0, 0)
	case "none", "disabled":
		m.Chat = nil
	default:
		return Manager{}, fmt.Errorf("unsupported chat backend: %s", cfg.Chat.Backend)
	}
	return m, nil
}

// no-op backends for "none" configuration
type noopSearch struct{}

func (noopSearch) Index(context.Context, string, string, map[string]string) error { return nil }
func (noopSearch) Remove(context.Context, string) error                           { return nil }
func (noopSearch) Search(context.Context, string, int) ([]SearchResult, error)    { return nil, nil }

type noopVector struct{}

func (noopVector) Upsert(context.Context, string, []float32, map[string]string) error { return nil }
func (noopVector) Delete(context.Context, string) error                               { return nil }
func (noopVector) SimilaritySearch(context.Context, []float32, int, float64, map[string]string) ([]VectorResult, error) {
	return nil, nil
}

// helpers
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func newPgPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Conservative defaults; can be made configurable later
	cfg.MaxConns = 8
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
