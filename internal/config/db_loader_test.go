package config

import "testing"

func TestLoad_DatabasesFromEnv(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "WORKDIR", "SEARCH_BACKEND", "VECTOR_BACKEND", "VECTOR_DIMENSIONS", "VECTOR_METRIC"} {
		t.Setenv(k, "")
	}
	t.Setenv("ANTHROPIC_API_KEY", "dummy")
	t.Setenv("SEARCH_BACKEND", "memory")
	t.Setenv("VECTOR_BACKEND", "memory")
	t.Setenv("VECTOR_DIMENSIONS", "3")
	t.Setenv("VECTOR_METRIC", "cosine")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Databases.Search.Backend != "memory" {
		t.Fatalf("unexpected search cfg: %+v", cfg.Databases.Search)
	}
	if cfg.Databases.Vector.Dimensions != 3 || cfg.Databases.Vector.Metric != "cosine" {
		t.Fatalf("unexpected vector cfg: %+v", cfg.Databases.Vector)
	}

	t.Setenv("SEARCH_BACKEND", "none")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load(env override) error: %v", err)
	}
	if cfg.Databases.Search.Backend != "none" {
		t.Fatalf("env override failed; got %q", cfg.Databases.Search.Backend)
	}
}
