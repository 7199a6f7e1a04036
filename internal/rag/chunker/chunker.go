// Package chunker splits document text into overlapping, boundary-respecting
// chunks for indexing and retrieval.
package chunker

import (
	"regexp"
	"strings"

	"singularityio/internal/rag/ingest"
)

// Chunk represents a produced chunk of text.
type Chunk struct {
	Index     int
	Text      string
	CharCount int
}

// Chunker splits text into chunks according to ChunkingOptions.
type Chunker interface {
	Chunk(text string, opt ingest.ChunkingOptions) ([]Chunk, error)
}

// SimpleChunker implements a cascading chunking strategy: paragraphs are
// packed greedily up to the target size, paragraphs that don't fit on their
// own fall back to sentence splitting, sentences that still don't fit fall
// back to word splitting, and a single word longer than the target is
// emitted alone.
type SimpleChunker struct{}

const (
	defaultChunkSize = 500
	defaultOverlap   = 50
	paraSeparator    = "\n\n"
)

var whitespaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLineRun = regexp.MustCompile(`\n\s*\n\s*\n+`)
var sentenceSplit = regexp.MustCompile(`(?s)(?:[.!?])\s+`)

// Chunk splits text into chunks. Empty or whitespace-only input yields an
// empty sequence.
func (SimpleChunker) Chunk(text string, opt ingest.ChunkingOptions) ([]Chunk, error) {
	size := opt.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := opt.Overlap
	if overlap < 0 {
		overlap = defaultOverlap
	}

	text = cleanText(text)
	if text == "" {
		return nil, nil
	}

	bodies := splitText(text, size, overlap)
	out := make([]Chunk, len(bodies))
	for i, b := range bodies {
		out[i] = Chunk{Index: i, Text: b, CharCount: len(b)}
	}
	return out, nil
}

func cleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func(next string) {
		chunks = append(chunks, strings.TrimSpace(current.String()))
		tail := overlapTail(current.String(), overlap)
		current.Reset()
		current.WriteString(tail)
		current.WriteString(next)
	}

	for _, para := range strings.Split(text, paraSeparator) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len()+len(para)+len(paraSeparator) > size {
			if current.Len() > 0 {
				flush(para)
				continue
			}
			if len(para) > size {
				sentenceChunks := splitBySentences(para, size, overlap)
				if len(sentenceChunks) > 0 {
					chunks = append(chunks, sentenceChunks[:len(sentenceChunks)-1]...)
					current.WriteString(sentenceChunks[len(sentenceChunks)-1])
				}
			} else {
				current.WriteString(para)
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(paraSeparator)
		}
		current.WriteString(para)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func splitBySentences(text string, size, overlap int) []string {
	sentences := sentenceSplit.Split(text, -1)

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len()+len(sentence)+1 > size {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				tail := overlapTail(current.String(), overlap)
				current.Reset()
				current.WriteString(tail)
				current.WriteString(sentence)
				continue
			}
			if len(sentence) > size {
				wordChunks := splitByWords(sentence, size, overlap)
				if len(wordChunks) > 0 {
					chunks = append(chunks, wordChunks[:len(wordChunks)-1]...)
					current.WriteString(wordChunks[len(wordChunks)-1])
				}
				continue
			}
			current.WriteString(sentence)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func splitByWords(text string, size, overlap int) []string {
	words := strings.Fields(text)

	var chunks []string
	var current strings.Builder
	var currentWords []string

	overlapWords := overlap / 10
	if overlapWords < 0 {
		overlapWords = 0
	}

	for _, word := range words {
		if current.Len()+len(word)+1 > size {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				start := len(currentWords) - overlapWords
				if start < 0 {
					start = 0
				}
				current.Reset()
				current.WriteString(strings.Join(currentWords[start:], " "))
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(word)
				currentWords = append(append([]string{}, currentWords[start:]...), word)
				continue
			}
			// A single word exceeds the target size; emit it alone.
			chunks = append(chunks, word)
			current.Reset()
			currentWords = nil
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
		currentWords = append(currentWords, word)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// overlapTail returns the trailing context (plus a separating space) to
// prepend to the next chunk: the text after the last sentence terminator
// within the final `overlap` characters, or the raw tail if none is found.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	if len(text) <= overlap {
		return text + " "
	}
	tail := text[len(text)-overlap:]
	if loc := sentenceSplit.FindAllStringIndex(tail, -1); len(loc) > 0 {
		last := loc[len(loc)-1]
		tail = tail[last[1]:]
	}
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return ""
	}
	return tail + " "
}
