package builder

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"pdfsqueeze/document"
)

func roundTrip(t *testing.T, paragraphs []Paragraph) *document.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := Build(paragraphs).Save(&buf, document.SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	doc, err := document.Open(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestBuildSinglePage(t *testing.T) {
	doc := roundTrip(t, []Paragraph{
		{Text: "Quarterly Report", Style: StyleHeading1},
		{Text: "Everything is fine."},
	})
	n, err := doc.PageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("page count = %d, want 1", n)
	}
}

func TestBuildEmptyDocumentStillHasAPage(t *testing.T) {
	doc := roundTrip(t, nil)
	n, err := doc.PageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("page count = %d, want 1", n)
	}
}

func TestBuildPaginates(t *testing.T) {
	var paragraphs []Paragraph
	for i := 0; i < 120; i++ {
		paragraphs = append(paragraphs, Paragraph{Text: "line of body text"})
	}
	doc := roundTrip(t, paragraphs)
	n, err := doc.PageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n < 2 {
		t.Fatalf("page count = %d, want pagination", n)
	}
}

func TestContentCarriesText(t *testing.T) {
	var buf bytes.Buffer
	if err := Build([]Paragraph{{Text: "needle text"}}).Save(&buf, document.SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("(needle text) Tj")) {
		t.Fatal("content stream does not show the paragraph")
	}
}

func TestWrapBreaksLongWords(t *testing.T) {
	spec := specFor(StyleBody)
	long := strings.Repeat("a", 500)
	lines := wrap(long, spec)
	if len(lines) < 2 {
		t.Fatalf("wrap produced %d lines for a 500-char word", len(lines))
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText(`a(b)\`); got != `a\(b\)\\` {
		t.Fatalf("escapeText = %q", got)
	}
	if got := escapeText("héllo"); got != "h?llo" {
		t.Fatalf("non-ascii escape = %q", got)
	}
}
