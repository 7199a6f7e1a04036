package databases

import (
	"context"

	"github.com/rs/zerolog/log"
)

// FallbackVectorStore wraps an accelerated VectorStore (e.g. Qdrant) with a
// linear in-process VectorStore used whenever the accelerated store errors.
// Writes go to both so the fallback stays queryable; reads prefer the
// accelerated store and only fall back on error, not on empty results.
type FallbackVectorStore struct {
	primary  VectorStore
	fallback VectorStore
}

// NewFallbackVectorStore builds a VectorStore that tries primary first and
// falls back to fallback's linear scan whenever primary returns an error.
func NewFallbackVectorStore(primary, fallback VectorStore) *FallbackVectorStore {
	return &FallbackVectorStore{primary: primary, fallback: fallback}
}

func (f *FallbackVectorStore) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	err := f.primary.Upsert(ctx, id, vector, metadata)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("vector upsert: accelerated backend failed, writing to fallback only")
	}
	if ferr := f.fallback.Upsert(ctx, id, vector, metadata); ferr != nil {
		if err != nil {
			return err
		}
		return ferr
	}
	return err
}

func (f *FallbackVectorStore) Delete(ctx context.Context, id string) error {
	err := f.primary.Delete(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("vector delete: accelerated backend failed")
	}
	if ferr := f.fallback.Delete(ctx, id); ferr != nil {
		if err != nil {
			return err
		}
		return ferr
	}
	return err
}

func (f *FallbackVectorStore) SimilaritySearch(ctx context.Context, vector []float32, k int, minScore float64, filter map[string]string) ([]VectorResult, error) {
	results, err := f.primary.SimilaritySearch(ctx, vector, k, minScore, filter)
	if err == nil {
		return results, nil
	}
	log.Warn().Err(err).Msg("vector search: accelerated backend failed, falling back to linear scan")
	return f.fallback.SimilaritySearch(ctx, vector, k, minScore, filter)
}

func (f *FallbackVectorStore) Close() error {
	if c, ok := f.primary.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if c, ok := f.fallback.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
