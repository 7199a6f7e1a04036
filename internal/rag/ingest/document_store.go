package ingest

import (
	"context"
	"fmt"

	"singularityio/internal/persistence/databases"
)

// metaLister is an optional capability of a FullTextSearch backend: list
// every row whose metadata contains filter.
type metaLister interface {
	ListByMeta(ctx context.Context, filter map[string]string, limit int) ([]databases.SearchResult, error)
}

// metaDeleter is an optional capability of a FullTextSearch backend: delete
// every row whose metadata contains filter, returning the count removed.
type metaDeleter interface {
	DeleteByMeta(ctx context.Context, filter map[string]string) (int, error)
}

// DocumentStoreStats summarizes the documents and chunks held for a tenant.
type DocumentStoreStats struct {
	Documents int
	Chunks    int
}

// DocumentStore is a tenant-scoped facade over a FullTextSearch backend,
// exposing the document/chunk lifecycle operations the retrieval and
// ingestion pipeline needs beyond raw indexing.
type DocumentStore struct {
	search databases.FullTextSearch
}

// NewDocumentStore wraps a FullTextSearch backend.
func NewDocumentStore(s databases.FullTextSearch) *DocumentStore {
	return &DocumentStore{search: s}
}

// PutChunk indexes a single already-chunked record for a document.
func (d *DocumentStore) PutChunk(ctx context.Context, docID string, lang string, rec ChunkRecord, in IngestRequest, version int) (string, error) {
	ids, err := UpsertChunksToSearch(ctx, d.search, docID, lang, []ChunkRecord{rec}, in, version)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// ExistsSource reports whether any document for tenant whose source type
// (e.g. "web") or URL equals source has already been ingested.
func (d *DocumentStore) ExistsSource(ctx context.Context, tenant, source string) (bool, error) {
	lister, ok := d.search.(metaLister)
	if !ok {
		return false, fmt.Errorf("search backend does not support metadata listing")
	}
	for _, key := range []string{"source", "url"} {
		rows, err := lister.ListByMeta(ctx, map[string]string{"type": "doc", "tenant": tenant, key: source}, 1)
		if err != nil {
			return false, err
		}
		if len(rows) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ListChunks returns every indexed chunk for docID belonging to tenant.
func (d *DocumentStore) ListChunks(ctx context.Context, tenant, docID string) ([]databases.SearchResult, error) {
	lister, ok := d.search.(metaLister)
	if !ok {
		return nil, fmt.Errorf("search backend does not support metadata listing")
	}
	return lister.ListByMeta(ctx, map[string]string{"type": "chunk", "tenant": tenant, "doc_id": docID}, 0)
}

// GetMany fetches multiple rows by ID in one call, skipping IDs that don't exist.
func (d *DocumentStore) GetMany(ctx context.Context, ids []string) ([]databases.SearchResult, error) {
	out := make([]databases.SearchResult, 0, len(ids))
	for _, id := range ids {
		r, ok, err := d.search.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteBySource removes the document and all of its chunks for tenant/source,
// returning the total number of rows removed.
func (d *DocumentStore) DeleteBySource(ctx context.Context, tenant, source string) (int, error) {
	deleter, ok := d.search.(metaDeleter)
	if !ok {
		return 0, fmt.Errorf("search backend does not support metadata deletion")
	}
	docsRemoved, err := deleter.DeleteByMeta(ctx, map[string]string{"type": "doc", "tenant": tenant, "source": source})
	if err != nil {
		return docsRemoved, err
	}
	lister, ok := d.search.(metaLister)
	if !ok {
		return docsRemoved, nil
	}
	chunks, err := lister.ListByMeta(ctx, map[string]string{"type": "chunk", "tenant": tenant, "source": source}, 0)
	if err != nil {
		return docsRemoved, err
	}
	chunksRemoved := 0
	for _, c := range chunks {
		if err := d.search.Remove(ctx, c.ID); err != nil {
			return docsRemoved + chunksRemoved, err
		}
		chunksRemoved++
	}
	return docsRemoved + chunksRemoved, nil
}

// DeleteByID removes a single document or chunk by its indexed ID.
func (d *DocumentStore) DeleteByID(ctx context.Context, id string) error {
	return d.search.Remove(ctx, id)
}

// ListDocuments returns tenant's documents, optionally restricted to a
// single source type, with page/pageSize pagination (1-indexed page). It
// backs spec.md §6's GET /api/documents endpoint.
func (d *DocumentStore) ListDocuments(ctx context.Context, tenant, sourceType string, page, pageSize int) ([]databases.SearchResult, int, error) {
	lister, ok := d.search.(metaLister)
	if !ok {
		return nil, 0, fmt.Errorf("search backend does not support metadata listing")
	}
	filter := map[string]string{"type": "doc", "tenant": tenant}
	if sourceType != "" {
		filter["source"] = sourceType
	}
	rows, err := lister.ListByMeta(ctx, filter, 0)
	if err != nil {
		return nil, 0, err
	}
	total := len(rows)
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []databases.SearchResult{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return rows[start:end], total, nil
}

// Stats reports the number of documents and chunks currently indexed for tenant.
func (d *DocumentStore) Stats(ctx context.Context, tenant string) (DocumentStoreStats, error) {
	lister, ok := d.search.(metaLister)
	if !ok {
		return DocumentStoreStats{}, fmt.Errorf("search backend does not support metadata listing")
	}
	docs, err := lister.ListByMeta(ctx, map[string]string{"type": "doc", "tenant": tenant}, 0)
	if err != nil {
		return DocumentStoreStats{}, err
	}
	chunks, err := lister.ListByMeta(ctx, map[string]string{"type": "chunk", "tenant": tenant}, 0)
	if err != nil {
		return DocumentStoreStats{}, err
	}
	return DocumentStoreStats{Documents: len(docs), Chunks: len(chunks)}, nil
}
