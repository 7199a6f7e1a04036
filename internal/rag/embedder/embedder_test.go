package embedder

import (
	"context"
	"sync"
	"testing"
)

func TestDeterministic_SameInputSameVector(t *testing.T) {
	e := NewDeterministic(32, true, 7)
	a, err := e.EmbedBatch(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}
	b, err := e.EmbedBatch(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if len(a[0]) != 32 || len(b[0]) != 32 {
		t.Fatalf("expected dim 32, got %d and %d", len(a[0]), len(b[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("expected deterministic output, differed at %d: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	inner Embedder
}

func (c *countingEmbedder) Name() string      { return c.inner.Name() }
func (c *countingEmbedder) Dimension() int    { return c.inner.Dimension() }
func (c *countingEmbedder) Ping(ctx context.Context) error { return c.inner.Ping(ctx) }
func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_HitsAndMisses(t *testing.T) {
	inner := &countingEmbedder{inner: NewDeterministic(8, false, 1)}
	cached := NewCached(inner, 4)

	_, err := cached.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}
	_, err = cached.EmbedBatch(context.Background(), []string{"a", "c"})
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}

	hits, misses := cached.Stats()
	if hits != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
	if misses != 3 {
		t.Fatalf("expected 3 misses, got %d", misses)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", inner.calls)
	}
}

func TestCachedEmbedder_EvictsOldestBeyondSize(t *testing.T) {
	inner := &countingEmbedder{inner: NewDeterministic(8, false, 1)}
	cached := NewCached(inner, 2)

	_, _ = cached.EmbedBatch(context.Background(), []string{"a"})
	_, _ = cached.EmbedBatch(context.Background(), []string{"b"})
	_, _ = cached.EmbedBatch(context.Background(), []string{"c"}) // evicts "a"
	_, _ = cached.EmbedBatch(context.Background(), []string{"a"}) // miss again

	_, misses := cached.Stats()
	if misses != 4 {
		t.Fatalf("expected 4 misses (a,b,c,a-again), got %d", misses)
	}
}
