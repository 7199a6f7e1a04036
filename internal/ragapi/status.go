package ragapi

import "context"

// StatusResponse mirrors spec.md §6's GET /api/status body.
type StatusResponse struct {
	DatabaseReachable bool   `json:"database_reachable"`
	TotalChunks       int    `json:"total_chunks"`
	UniqueSources     int    `json:"unique_sources"`
	EmbeddingsEnabled bool   `json:"embeddings_enabled"`
	EmbeddingDim      int    `json:"embedding_dimension"`
	LLMProvider       string `json:"llm_provider"`
	LLMModel          string `json:"llm_model"`
}

// Status reports tenant-scoped service health for spec.md §6's status
// endpoint. Database reachability is inferred from whether the stats query
// itself succeeds.
func (a *App) Status(ctx context.Context, tenant string) StatusResponse {
	stats, err := a.DocStore.Stats(ctx, tenant)
	resp := StatusResponse{
		DatabaseReachable: err == nil,
		TotalChunks:       stats.Chunks,
		UniqueSources:     stats.Documents,
		EmbeddingsEnabled: a.Embedder != nil,
		LLMProvider:       a.Cfg.LLMClient.Provider,
		LLMModel:          a.genModel(),
	}
	if a.Embedder != nil {
		resp.EmbeddingDim = a.Embedder.Dimension()
	}
	return resp
}
