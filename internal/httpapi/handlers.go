package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"singularityio/internal/rag/crawl"
	"singularityio/internal/rag/ingest"
	"singularityio/internal/ragapi"
)

type tenantCtxKey struct{}

func tenantFromRequest(r *http.Request) string {
	tenant, _ := r.Context().Value(tenantCtxKey{}).(string)
	return tenant
}

// withBearerAuth resolves the Authorization: Bearer <token> header to a
// tenant ID before delegating to next.
func (s *Server) withBearerAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := ragapi.ResolveBearerHeader(s.auth, r.Header.Get("Authorization"))
		if err != nil {
			respondAPIError(w, http.StatusUnauthorized, "auth_error", "missing or invalid bearer token", "")
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), tenantCtxKey{}, tenant))
		next(w, r)
	}
}

// withAPIKeyAuth resolves the X-API-Key header to a tenant ID before
// delegating to next; used by the public widget chat endpoint.
func (s *Server) withAPIKeyAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := ragapi.ResolveAPIKey(s.auth, r.Header.Get("X-API-Key"))
		if err != nil {
			respondAPIError(w, http.StatusUnauthorized, "auth_error", "missing or invalid API key", "")
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), tenantCtxKey{}, tenant))
		next(w, r)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	var req ragapi.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "malformed request body", err.Error())
		return
	}
	if req.Message == "" {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "message is required", "")
		return
	}
	resp, err := s.app.Chat(r.Context(), tenant, req)
	if err != nil {
		respondAPIError(w, http.StatusInternalServerError, "provider_error", "chat failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "malformed request body", err.Error())
		return
	}
	if err := s.app.ClearHistory(r.Context(), tenant, req.SessionID); err != nil {
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "clear history failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "session_id is required", "")
		return
	}
	turns, err := s.app.History(r.Context(), tenant, sessionID)
	if err != nil {
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "history lookup failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	var req ragapi.CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "malformed request body", err.Error())
		return
	}
	accepted, err := s.app.StartCrawl(tenant, req)
	if err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}
	respondJSON(w, http.StatusOK, accepted)
}

func (s *Server) handleGetCrawlJob(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	jobID := r.PathValue("jobID")
	job, err := s.app.GetCrawlJob(jobID)
	if err != nil {
		if errors.Is(err, ragapi.ErrJobNotFound) {
			respondAPIError(w, http.StatusNotFound, "not_found", "job not found", "")
			return
		}
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "job lookup failed", err.Error())
		return
	}
	if job.TenantID != tenant {
		respondAPIError(w, http.StatusForbidden, "auth_error", "job belongs to another tenant", "")
		return
	}
	respondJSON(w, http.StatusOK, crawlJobView(job))
}

func crawlJobView(job crawl.CrawlJob) map[string]any {
	return map[string]any{
		"job_id":            job.ID,
		"url":               job.URL,
		"status":            string(job.Status),
		"pages_visited":     job.PagesVisited,
		"documents_created": job.DocumentsCreated,
		"chunks_created":    job.ChunksCreated,
		"error_message":     job.ErrorMessage,
		"created_at":        job.CreatedAt,
		"updated_at":        job.UpdatedAt,
	}
}

const maxUploadMemoryBytes = 32 << 20 // 32MiB held in memory before spilling to disk

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)

	if err := r.ParseMultipartForm(maxUploadMemoryBytes); err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "malformed multipart upload", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondAPIError(w, http.StatusBadRequest, "validation_error", "file field is required", err.Error())
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "ingest-upload-*")
	if err != nil {
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "upload staging failed", err.Error())
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "upload staging failed", err.Error())
		return
	}

	result, err := s.app.IngestFile(r.Context(), tenant, header.Filename, tmp.Name(), s.app.Cfg.Ingestion.MinContentChars)
	if err != nil {
		switch {
		case errors.Is(err, ragapi.ErrUnsupportedFileType):
			respondAPIError(w, http.StatusBadRequest, "validation_error", "unsupported file type", "")
		case errors.Is(err, ingest.ErrInsufficientContent):
			respondJSON(w, http.StatusOK, ragapi.FileIngestResult{
				Success:  false,
				Filename: header.Filename,
				Message:  "insufficient extractable content",
			})
		default:
			respondAPIError(w, http.StatusInternalServerError, "provider_error", "file ingestion failed", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	respondJSON(w, http.StatusOK, s.app.Status(r.Context(), tenant))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	sourceType := r.URL.Query().Get("source_type")

	docs, err := s.app.ListDocuments(r.Context(), tenant, sourceType, page, pageSize)
	if err != nil {
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "document listing failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromRequest(r)
	docID := r.URL.Query().Get("doc_id")
	sourceURL := r.URL.Query().Get("source_url")

	removed, err := s.app.DeleteDocument(r.Context(), tenant, docID, sourceURL)
	if err != nil {
		if errors.Is(err, ragapi.ErrDocumentSelectorRequired) {
			respondAPIError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
			return
		}
		respondAPIError(w, http.StatusInternalServerError, "internal_error", "delete failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondAPIError writes spec.md §6's error body shape: {error, message,
// details?}. code is a short machine-readable category (validation_error,
// auth_error, not_found, provider_error, internal_error); message is
// human-readable; details is omitted when empty.
func respondAPIError(w http.ResponseWriter, status int, code, message, details string) {
	body := map[string]any{"error": code, "message": message}
	if details != "" {
		body["details"] = details
	}
	respondJSON(w, status, body)
}
