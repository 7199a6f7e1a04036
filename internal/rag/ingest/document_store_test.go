package ingest_test

import (
	"context"
	"testing"

	"singularityio/internal/persistence/databases"
	ingest "singularityio/internal/rag/ingest"
)

func TestDocumentStore_ExistsSourceAndStats(t *testing.T) {
	ctx := context.Background()
	search := databases.NewMemorySearch()
	ds := ingest.NewDocumentStore(search)

	in := ingest.IngestRequest{ID: "doc:t1:a", Source: "web", Tenant: "t1"}
	pre := ingest.PreprocessedDoc{Text: "hello world", Language: "english"}
	if err := ingest.UpsertDocumentToSearch(ctx, search, in.ID, in, pre, 1); err != nil {
		t.Fatalf("upsert doc: %v", err)
	}
	chunks := []ingest.ChunkRecord{{Index: 0, Text: "hello"}, {Index: 1, Text: "world"}}
	if _, err := ingest.UpsertChunksToSearch(ctx, search, in.ID, "english", chunks, in, 1); err != nil {
		t.Fatalf("upsert chunks: %v", err)
	}

	exists, err := ds.ExistsSource(ctx, "t1", "web")
	if err != nil {
		t.Fatalf("exists source: %v", err)
	}
	if !exists {
		t.Fatalf("expected source to exist")
	}

	missing, err := ds.ExistsSource(ctx, "t1", "github")
	if err != nil {
		t.Fatalf("exists source (missing): %v", err)
	}
	if missing {
		t.Fatalf("expected github source to not exist")
	}

	stats, err := ds.Stats(ctx, "t1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Documents != 1 || stats.Chunks != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	list, err := ds.ListChunks(ctx, "t1", in.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(list))
	}
}

func TestDocumentStore_DeleteBySourceRemovesDocAndChunks(t *testing.T) {
	ctx := context.Background()
	search := databases.NewMemorySearch()
	ds := ingest.NewDocumentStore(search)

	in := ingest.IngestRequest{ID: "doc:t1:a", Source: "web", Tenant: "t1"}
	pre := ingest.PreprocessedDoc{Text: "hello world", Language: "english"}
	_ = ingest.UpsertDocumentToSearch(ctx, search, in.ID, in, pre, 1)
	chunks := []ingest.ChunkRecord{{Index: 0, Text: "hello"}}
	_, _ = ingest.UpsertChunksToSearch(ctx, search, in.ID, "english", chunks, in, 1)

	n, err := ds.DeleteBySource(ctx, "t1", "web")
	if err != nil {
		t.Fatalf("delete by source: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows removed (doc + chunk), got %d", n)
	}

	exists, err := ds.ExistsSource(ctx, "t1", "web")
	if err != nil {
		t.Fatalf("exists source after delete: %v", err)
	}
	if exists {
		t.Fatalf("expected source to be gone after delete")
	}
}

func TestDocumentStore_GetManySkipsMissing(t *testing.T) {
	ctx := context.Background()
	search := databases.NewMemorySearch()
	ds := ingest.NewDocumentStore(search)

	in := ingest.IngestRequest{ID: "doc:t1:a", Source: "web", Tenant: "t1"}
	pre := ingest.PreprocessedDoc{Text: "hello world", Language: "english"}
	_ = ingest.UpsertDocumentToSearch(ctx, search, in.ID, in, pre, 1)

	rows, err := ds.GetMany(ctx, []string{in.ID, "doc:missing"})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != in.ID {
		t.Fatalf("expected only the existing row, got %#v", rows)
	}
}
