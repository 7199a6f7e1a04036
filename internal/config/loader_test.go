package config

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	if v := firstNonEmpty("", "foo", "bar"); v != "foo" {
		t.Fatalf("expected 'foo', got %q", v)
	}
	if v := firstNonEmpty(); v != "" {
		t.Fatalf("expected empty, got %q", v)
	}
}

func TestParseInt(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		n, err := parseInt("42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 42 {
			t.Fatalf("expected 42, got %d", n)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := parseInt("notanint"); err == nil {
			t.Fatalf("expected error for invalid int")
		}
	})
}

func TestParseKeyValueList(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		m, err := parseKeyValueList(`{"x-api-key":"abc"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m["x-api-key"] != "abc" {
			t.Fatalf("expected abc, got %q", m["x-api-key"])
		}
	})
	t.Run("csv", func(t *testing.T) {
		m, err := parseKeyValueList("x-api-key:abc,foo=bar")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m["x-api-key"] != "abc" || m["foo"] != "bar" {
			t.Fatalf("unexpected map: %+v", m)
		}
	})
}

func TestEmbedApiHeadersEnv_JSONAndCSV(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "dummy")
	t.Setenv("WORKDIR", ".")

	t.Setenv("EMBED_API_HEADERS", `{"x-api-key":"abc"}`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.Embedding.Headers["x-api-key"]; got != "abc" {
		t.Fatalf("expected x-api-key abc, got %q", got)
	}

	t.Setenv("EMBED_API_HEADERS", "x-api-key:abc,foo=bar")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.Embedding.Headers["foo"]; got != "bar" {
		t.Fatalf("expected foo bar, got %q", got)
	}
}
