package ragapi

import (
	"fmt"
	"net/http"

	"singularityio/internal/config"
	"singularityio/internal/llm"
	"singularityio/internal/llm/anthropic"
	"singularityio/internal/llm/openai"
	"singularityio/internal/persistence"
	"singularityio/internal/persistence/databases"
	"singularityio/internal/rag/crawl"
	"singularityio/internal/rag/embedder"
	"singularityio/internal/rag/generate"
	"singularityio/internal/rag/ingest"
	"singularityio/internal/rag/service"
)

// App holds every dependency an HTTP handler needs to serve the RAG
// surface: the ingestion/retrieval service, durable chat memory, the crawl
// orchestrator, the generator, and resolved configuration.
type App struct {
	Cfg      config.Config
	Service  *service.Service
	Chat     persistence.ChatStore
	DocStore *ingest.DocumentStore
	Crawl    *crawl.Orchestrator
	Gen      *generate.Generator
	Embedder embedder.Embedder
}

// New wires an App from resolved configuration and database backends.
func New(cfg config.Config, mgr databases.Manager) (*App, error) {
	emb := embedder.NewCached(embedder.NewClient(cfg.Embedding, 0), 0)

	svc := service.New(mgr, service.WithEmbedder(emb))
	docStore := ingest.NewDocumentStore(mgr.Search)

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.LLMClient.Anthropic.Model
	if cfg.LLMClient.Provider == "openai" {
		model = cfg.OpenAI.Model
	}
	persona := generate.Persona{Name: firstNonEmpty(cfg.Obs.ServiceName, "Assistant"), Personality: "helpful, concise, and direct"}
	if cfg.SystemPrompt != "" {
		persona.Personality = cfg.SystemPrompt
	}
	gen := generate.New(provider, model, persona)

	orchestrator := crawl.NewOrchestrator(cfg.Crawl, svc, docStore)

	return &App{
		Cfg:      cfg,
		Service:  svc,
		Chat:     mgr.Chat,
		DocStore: docStore,
		Crawl:    orchestrator,
		Gen:      gen,
		Embedder: emb,
	}, nil
}

func newProvider(cfg config.Config) (llm.Provider, error) {
	switch cfg.LLMClient.Provider {
	case "openai":
		return openai.New(cfg.LLMClient.OpenAI, http.DefaultClient), nil
	case "anthropic", "":
		return anthropic.New(cfg.LLMClient.Anthropic, http.DefaultClient), nil
	default:
		return nil, fmt.Errorf("ragapi: unsupported LLM_PROVIDER %q", cfg.LLMClient.Provider)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Close releases background resources (the session-memory worker pool and
// any durable store connections).
func (a *App) Close() {
	if c, ok := a.Chat.(interface{ Close() }); ok {
		c.Close()
	}
}
