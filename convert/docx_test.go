package convert

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"pdfsqueeze/builder"
	"pdfsqueeze/document"
)

func writeDocx(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	xml := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadDocx(t *testing.T) {
	path := writeDocx(t, `
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>
<w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>half.</w:t></w:r></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>`)
	paragraphs, err := readDocx(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("got %d paragraphs: %+v", len(paragraphs), paragraphs)
	}
	if paragraphs[0].Style != builder.StyleHeading1 || paragraphs[0].Text != "Report" {
		t.Fatalf("heading = %+v", paragraphs[0])
	}
	if paragraphs[1].Text != "First half." {
		t.Fatalf("runs not joined: %q", paragraphs[1].Text)
	}
}

func TestReadDocxMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()
	if _, err := readDocx(path); err == nil {
		t.Fatal("expected error for docx without word/document.xml")
	}
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name string
		want builder.Style
	}{
		{"Heading1", builder.StyleHeading1},
		{"Title", builder.StyleHeading1},
		{"heading2", builder.StyleHeading2},
		{"Heading5", builder.StyleHeading3},
		{"Normal", builder.StyleBody},
		{"", builder.StyleBody},
	}
	for _, tt := range tests {
		if got := styleFor(tt.name); got != tt.want {
			t.Errorf("styleFor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFallbackRendersDocx(t *testing.T) {
	in := writeDocx(t, `<w:p><w:r><w:t>Hello from Word</w:t></w:r></w:p>`)
	out := filepath.Join(t.TempDir(), "out.pdf")
	if err := renderFallback(in, out); err != nil {
		t.Fatal(err)
	}
	doc, err := document.OpenFile(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := doc.PageCount(); err != nil || n != 1 {
		t.Fatalf("page count = %d, %v", n, err)
	}
}

func TestFallbackEmptyDocument(t *testing.T) {
	in := writeDocx(t, ``)
	out := filepath.Join(t.TempDir(), "out.pdf")
	if err := renderFallback(in, out); err != nil {
		t.Fatal(err)
	}
	if _, err := document.OpenFile(context.Background(), out); err != nil {
		t.Fatal(err)
	}
}

func TestFallbackRejectsOtherFormats(t *testing.T) {
	in := filepath.Join(t.TempDir(), "input.odt")
	if err := os.WriteFile(in, []byte("not a docx"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := renderFallback(in, filepath.Join(t.TempDir(), "out.pdf"))
	if err != ErrUnsupportedInput {
		t.Fatalf("err = %v, want ErrUnsupportedInput", err)
	}
}
