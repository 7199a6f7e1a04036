package httpapi

import (
	"net/http"

	"singularityio/internal/config"
	"singularityio/internal/ragapi"
)

// Server exposes the tenant-scoped RAG HTTP surface of spec.md §6: chat,
// crawl/file ingestion, status, and document management.
type Server struct {
	app  *ragapi.App
	auth config.AuthConfig
	mux  *http.ServeMux
}

// NewServer creates the HTTP API server wired to app.
func NewServer(app *ragapi.App) *Server {
	s := &Server{app: app, auth: app.Cfg.Auth, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/chat/", s.withBearerAuth(s.handleChat))
	s.mux.HandleFunc("POST /api/chat/widget", s.withAPIKeyAuth(s.handleChat))
	s.mux.HandleFunc("POST /api/chat/clear-history", s.withBearerAuth(s.handleClearHistory))
	s.mux.HandleFunc("GET /api/chat/history", s.withBearerAuth(s.handleHistory))

	s.mux.HandleFunc("POST /api/ingest/url", s.withBearerAuth(s.handleIngestURL))
	s.mux.HandleFunc("GET /api/ingest/url/{jobID}", s.withBearerAuth(s.handleGetCrawlJob))
	s.mux.HandleFunc("POST /api/ingest/file", s.withBearerAuth(s.handleIngestFile))

	s.mux.HandleFunc("GET /api/status", s.withBearerAuth(s.handleStatus))

	s.mux.HandleFunc("GET /api/documents", s.withBearerAuth(s.handleListDocuments))
	s.mux.HandleFunc("DELETE /api/documents", s.withBearerAuth(s.handleDeleteDocument))
}
