package databases

import (
	"context"
	"errors"
	"testing"
)

type erroringVector struct {
	upsertErr error
	deleteErr error
	searchErr error
}

func (e *erroringVector) Upsert(context.Context, string, []float32, map[string]string) error {
	return e.upsertErr
}
func (e *erroringVector) Delete(context.Context, string) error { return e.deleteErr }
func (e *erroringVector) SimilaritySearch(context.Context, []float32, int, float64, map[string]string) ([]VectorResult, error) {
	if e.searchErr != nil {
		return nil, e.searchErr
	}
	return []VectorResult{{ID: "primary-hit", Score: 1}}, nil
}

func TestFallbackVectorStore_UsesPrimaryOnSuccess(t *testing.T) {
	t.Parallel()
	primary := &erroringVector{}
	fallback := NewMemoryVector()
	fv := NewFallbackVectorStore(primary, fallback)

	res, err := fv.SimilaritySearch(context.Background(), []float32{1, 0}, 5, 0, nil)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(res) != 1 || res[0].ID != "primary-hit" {
		t.Fatalf("expected primary result, got %#v", res)
	}
}

func TestFallbackVectorStore_FallsBackOnSearchError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	primary := &erroringVector{searchErr: errors.New("qdrant unreachable")}
	fallback := NewMemoryVector()
	fv := NewFallbackVectorStore(primary, fallback)

	if err := fv.Upsert(ctx, "a", []float32{1, 0}, nil); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	res, err := fv.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, nil)
	if err != nil {
		t.Fatalf("expected fallback search to succeed, got error: %v", err)
	}
	if len(res) != 1 || res[0].ID != "a" {
		t.Fatalf("expected fallback to find upserted vector, got %#v", res)
	}
}

func TestFallbackVectorStore_UpsertWritesThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	primary := NewMemoryVector()
	fallback := NewMemoryVector()
	fv := NewFallbackVectorStore(primary, fallback)

	if err := fv.Upsert(ctx, "a", []float32{1, 0}, nil); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	primaryRes, err := primary.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, nil)
	if err != nil || len(primaryRes) != 1 {
		t.Fatalf("expected primary to have the vector, got %#v err=%v", primaryRes, err)
	}
	fallbackRes, err := fallback.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, nil)
	if err != nil || len(fallbackRes) != 1 {
		t.Fatalf("expected fallback to have the vector too, got %#v err=%v", fallbackRes, err)
	}
}

func TestFallbackVectorStore_DeletePropagatesToBoth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	primary := NewMemoryVector()
	fallback := NewMemoryVector()
	fv := NewFallbackVectorStore(primary, fallback)

	_ = fv.Upsert(ctx, "a", []float32{1, 0}, nil)
	if err := fv.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	primaryRes, _ := primary.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, nil)
	fallbackRes, _ := fallback.SimilaritySearch(ctx, []float32{1, 0}, 5, 0, nil)
	if len(primaryRes) != 0 || len(fallbackRes) != 0 {
		t.Fatalf("expected vector removed from both stores, got primary=%#v fallback=%#v", primaryRes, fallbackRes)
	}
}
