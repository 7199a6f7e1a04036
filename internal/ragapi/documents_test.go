package ragapi

import (
	"context"
	"testing"

	"singularityio/internal/persistence/databases"
	"singularityio/internal/rag/ingest"
)

func newTestApp(t *testing.T) (*App, databases.FullTextSearch) {
	t.Helper()
	search := databases.NewMemorySearch()
	return &App{DocStore: ingest.NewDocumentStore(search)}, search
}

func TestListDocumentsFiltersByTenantAndSource(t *testing.T) {
	ctx := context.Background()
	a, search := newTestApp(t)

	in := ingest.IngestRequest{ID: "doc:t1:a", Source: "web", Tenant: "t1"}
	pre := ingest.PreprocessedDoc{Text: "hello", Language: "english"}
	if err := ingest.UpsertDocumentToSearch(ctx, search, in.ID, in, pre, 1); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	page, err := a.ListDocuments(ctx, "t1", "", 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(page.Documents))
	}

	page, err = a.ListDocuments(ctx, "t2", "", 1, 20)
	if err != nil {
		t.Fatalf("list other tenant: %v", err)
	}
	if len(page.Documents) != 0 {
		t.Fatalf("expected 0 documents for unrelated tenant, got %d", len(page.Documents))
	}
}

func TestDeleteDocumentRequiresASelector(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.DeleteDocument(context.Background(), "t1", "", ""); err != ErrDocumentSelectorRequired {
		t.Fatalf("expected ErrDocumentSelectorRequired, got %v", err)
	}
}
