package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckMinContent(t *testing.T) {
	if err := CheckMinContent(strings.Repeat("a", 100), 100); err != nil {
		t.Fatalf("expected no error at threshold, got %v", err)
	}
	if err := CheckMinContent(strings.Repeat("a", 99), 100); !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent below threshold, got %v", err)
	}
	if err := CheckMinContent("  short  ", 0); !errors.Is(err, ErrInsufficientContent) {
		t.Fatalf("expected default threshold of 100 to reject short text, got %v", err)
	}
}
