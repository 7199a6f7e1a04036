package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// ErrInsufficientContent signals a file produced fewer extractable
// characters than the configured minimum, per the "insufficient content"
// result (not an error) described for C9.
var ErrInsufficientContent = errors.New("ingest: insufficient extractable content")

// ExtractedFile holds the text and bookkeeping metadata pulled from an
// uploaded PDF or DOCX, ready to feed the chunker.
type ExtractedFile struct {
	Text  string
	Extra map[string]any
}

// ExtractPDF reads the plain text of every page of the PDF at path and
// collects document-info metadata (author, title, subject) alongside page
// counts, mirroring the fields a PDF ingestion pipeline reports.
func ExtractPDF(path string) (ExtractedFile, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ExtractedFile{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	tr, err := r.GetPlainText()
	if err != nil {
		return ExtractedFile{}, fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := io.Copy(&buf, tr); err != nil {
		return ExtractedFile{}, fmt.Errorf("read pdf text: %w", err)
	}

	extra := map[string]any{
		"pages": r.NumPage(),
	}
	if info := r.Trailer().Key("Info"); !info.IsNull() {
		for _, field := range []string{"Author", "Title", "Subject"} {
			if v := info.Key(field); v.Kind() == pdf.String {
				if s := strings.TrimSpace(v.Text()); s != "" {
					extra[strings.ToLower(field)] = s
				}
			}
		}
	}

	return ExtractedFile{Text: strings.TrimSpace(buf.String()), Extra: extra}, nil
}

// ExtractDOCX concatenates paragraph and table cell text from the DOCX at
// path, in document order.
func ExtractDOCX(path string) (ExtractedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExtractedFile{}, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ExtractedFile{}, fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return ExtractedFile{}, fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	paragraphs := 0
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if text := paragraphText(it); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
				paragraphs++
			}
		case *docx.Table:
			for _, row := range it.TableRows {
				for _, cell := range row.TableCells {
					for _, p := range cell.Paragraphs {
						if text := paragraphText(p); text != "" {
							sb.WriteString(text)
							sb.WriteString("\t")
						}
					}
				}
				sb.WriteString("\n")
			}
		}
	}

	extra := map[string]any{"paragraphs": paragraphs}
	return ExtractedFile{Text: strings.TrimSpace(sb.String()), Extra: extra}, nil
}

func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, c := range p.Children {
		if c.Run == nil {
			continue
		}
		for _, rc := range c.Run.Children {
			if rc.Text != nil {
				sb.WriteString(rc.Text.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// CheckMinContent returns ErrInsufficientContent when text has fewer than
// minChars characters, the threshold spec.md §4.9 requires for PDF/DOCX
// uploads to count as a usable document rather than an "insufficient
// content" result.
func CheckMinContent(text string, minChars int) error {
	if minChars <= 0 {
		minChars = 100
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minChars {
		return ErrInsufficientContent
	}
	return nil
}
