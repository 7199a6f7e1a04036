package ragapi

import (
	"context"
	"errors"
	"fmt"
)

// DocumentSummary is a single row in the documents listing response.
type DocumentSummary struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Source   string            `json:"source"`
	URL      string            `json:"url"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentsPage is the paginated response for spec.md §6's GET /api/documents.
type DocumentsPage struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// ListDocuments returns a page of tenant's ingested documents, optionally
// filtered by source type.
func (a *App) ListDocuments(ctx context.Context, tenant, sourceType string, page, pageSize int) (DocumentsPage, error) {
	rows, total, err := a.DocStore.ListDocuments(ctx, tenant, sourceType, page, pageSize)
	if err != nil {
		return DocumentsPage{}, fmt.Errorf("ragapi: list documents: %w", err)
	}
	docs := make([]DocumentSummary, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, DocumentSummary{
			ID:       r.ID,
			Title:    r.Metadata["title"],
			Source:   r.Metadata["source"],
			URL:      r.Metadata["url"],
			Metadata: r.Metadata,
		})
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return DocumentsPage{Documents: docs, Total: total, Page: page, PageSize: pageSize}, nil
}

// ErrDocumentSelectorRequired is returned when neither doc_id nor source_url
// is supplied to DeleteDocument.
var ErrDocumentSelectorRequired = errors.New("ragapi: doc_id or source_url required")

// DeleteDocument removes a document (and its chunks) identified either by
// doc ID or by source URL, scoped to tenant. Exactly one selector must be
// non-empty.
func (a *App) DeleteDocument(ctx context.Context, tenant, docID, sourceURL string) (int, error) {
	switch {
	case docID != "":
		if err := a.DocStore.DeleteByID(ctx, docID); err != nil {
			return 0, fmt.Errorf("ragapi: delete document: %w", err)
		}
		chunks, err := a.DocStore.ListChunks(ctx, tenant, docID)
		if err != nil {
			return 1, nil
		}
		removed := 1
		for _, c := range chunks {
			if err := a.DocStore.DeleteByID(ctx, c.ID); err == nil {
				removed++
			}
		}
		return removed, nil
	case sourceURL != "":
		n, err := a.DocStore.DeleteBySource(ctx, tenant, sourceURL)
		if err != nil {
			return 0, fmt.Errorf("ragapi: delete by source: %w", err)
		}
		return n, nil
	default:
		return 0, ErrDocumentSelectorRequired
	}
}
