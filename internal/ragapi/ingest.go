package ragapi

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"singularityio/internal/rag/crawl"
	"singularityio/internal/rag/ingest"
)

// CrawlRequest mirrors spec.md §6's POST /api/ingest/url body.
type CrawlRequest struct {
	URL         string `json:"url"`
	MaxDepth    int    `json:"max_depth"`
	FollowLinks bool   `json:"follow_links"`
	UseBrowser  bool   `json:"use_browser"`
}

// CrawlAccepted mirrors the 200 response to a URL ingestion request.
type CrawlAccepted struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ErrInvalidMaxDepth is returned when max_depth falls outside spec.md §6's
// 0-5 range.
var ErrInvalidMaxDepth = errors.New("ragapi: max_depth must be between 0 and 5")

// StartCrawl queues a URL crawl job and returns immediately, per spec.md
// §6's POST /api/ingest/url.
func (a *App) StartCrawl(tenant string, req CrawlRequest) (CrawlAccepted, error) {
	if req.URL == "" {
		return CrawlAccepted{}, errors.New("ragapi: url required")
	}
	if req.MaxDepth < 0 || req.MaxDepth > 5 {
		return CrawlAccepted{}, ErrInvalidMaxDepth
	}
	job := a.Crawl.Start(tenant, req.URL, req.MaxDepth, req.FollowLinks, req.UseBrowser)
	return CrawlAccepted{
		JobID:   job.ID,
		Status:  string(job.Status),
		URL:     job.URL,
		Message: "crawl queued",
	}, nil
}

// ErrJobNotFound is returned when a crawl job ID is unknown.
var ErrJobNotFound = errors.New("ragapi: job not found")

// GetCrawlJob returns the current state of a previously-started crawl job.
func (a *App) GetCrawlJob(id string) (crawl.CrawlJob, error) {
	job, ok := a.Crawl.Get(id)
	if !ok {
		return crawl.CrawlJob{}, ErrJobNotFound
	}
	return job, nil
}

var uploadExtensions = map[string]bool{".pdf": true, ".docx": true}

// ErrUnsupportedFileType is returned for uploads outside the pdf/docx
// whitelist.
var ErrUnsupportedFileType = errors.New("ragapi: unsupported file type")

// FileIngestResult mirrors spec.md §6's POST /api/ingest/file response.
type FileIngestResult struct {
	Success         bool   `json:"success"`
	Filename        string `json:"filename"`
	Title           string `json:"title,omitempty"`
	ChunksCreated   int    `json:"chunks_created"`
	TotalCharacters int    `json:"total_characters"`
	Message         string `json:"message"`
}

// IngestFile extracts text from an uploaded PDF/DOCX file at path and
// indexes it for tenant. filename is the original upload name, used for
// the extension whitelist and as a title fallback.
func (a *App) IngestFile(ctx context.Context, tenant, filename, path string, minContentChars int) (FileIngestResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !uploadExtensions[ext] {
		return FileIngestResult{}, ErrUnsupportedFileType
	}

	var extracted ingest.ExtractedFile
	var err error
	switch ext {
	case ".pdf":
		extracted, err = ingest.ExtractPDF(path)
	case ".docx":
		extracted, err = ingest.ExtractDOCX(path)
	}
	if err != nil {
		return FileIngestResult{}, fmt.Errorf("ragapi: extract %s: %w", filename, err)
	}
	if err := ingest.CheckMinContent(extracted.Text, minContentChars); err != nil {
		return FileIngestResult{}, err
	}

	title := filename
	if t, ok := extracted.Extra["title"].(string); ok && t != "" {
		title = t
	}
	docID := "doc:file:" + ingest.ComputeHash(extracted.Text, "file", filename)

	resp, err := a.Service.Ingest(ctx, ingest.IngestRequest{
		ID:       docID,
		Title:    title,
		URL:      filename,
		Source:   "file",
		Text:     extracted.Text,
		Tenant:   tenant,
		Metadata: extracted.Extra,
		Options: ingest.IngestOptions{
			Embedding: ingest.EmbeddingOptions{Enabled: true},
		},
	})
	if err != nil {
		return FileIngestResult{}, fmt.Errorf("ragapi: ingest %s: %w", filename, err)
	}

	return FileIngestResult{
		Success:         true,
		Filename:        filename,
		Title:           title,
		ChunksCreated:   resp.Stats.NumChunks,
		TotalCharacters: len(extracted.Text),
		Message:         "file ingested",
	}, nil
}
