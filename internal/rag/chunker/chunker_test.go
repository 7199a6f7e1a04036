package chunker

import (
	"strings"
	"testing"

	"singularityio/internal/rag/ingest"
)

func genText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("word")
	}
	return b.String()
}

func TestChunk_EmptyInput(t *testing.T) {
	ch := SimpleChunker{}
	chunks, err := ch.Chunk("   \n\n  ", ingest.ChunkingOptions{ChunkSize: 500, Overlap: 50})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestChunk_SizeBoundAndOverlap(t *testing.T) {
	text := genText(4000) // ~20000 chars of single long "paragraph"
	ch := SimpleChunker{}
	chunks, err := ch.Chunk(text, ingest.ChunkingOptions{ChunkSize: 500, Overlap: 50})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 500 {
			t.Fatalf("chunk %d exceeds chunk_size: %d chars", i, len(c.Text))
		}
		if c.CharCount != len(c.Text) {
			t.Fatalf("chunk %d char count mismatch: %d vs %d", i, c.CharCount, len(c.Text))
		}
		if c.Index != i {
			t.Fatalf("chunk %d has wrong index %d", i, c.Index)
		}
	}
}

func TestChunk_ParagraphsPackedGreedily(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
	ch := SimpleChunker{}
	chunks, err := ch.Chunk(text, ingest.ChunkingOptions{ChunkSize: 500, Overlap: 50})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected paragraphs to pack into a single chunk, got %d", len(chunks))
	}
}

func TestChunk_LongSentenceFallsBackToWords(t *testing.T) {
	// A single "sentence" (no terminators) far longer than chunk_size.
	text := genText(200)
	ch := SimpleChunker{}
	chunks, err := ch.Chunk(text, ingest.ChunkingOptions{ChunkSize: 50, Overlap: 10})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks from word-split fallback, got %d", len(chunks))
	}
}

func TestChunk_AtomicWordExceedingSizeEmittedAlone(t *testing.T) {
	word := strings.Repeat("x", 1000)
	ch := SimpleChunker{}
	chunks, err := ch.Chunk(word, ingest.ChunkingOptions{ChunkSize: 100, Overlap: 10})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != word {
		t.Fatalf("expected single atomic chunk with the full word, got %#v", chunks)
	}
}

func TestChunk_DefaultsApplied(t *testing.T) {
	ch := SimpleChunker{}
	chunks, err := ch.Chunk("short text", ingest.ChunkingOptions{})
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "short text" {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}
