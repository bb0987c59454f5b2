package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"pdfsqueeze/filters"
	"pdfsqueeze/object"
	"pdfsqueeze/writer"
)

// fixtureDoc builds a one-page document with a content stream.
func fixtureDoc() *object.Document {
	doc := object.NewDocument()

	content := object.NewStream(nil, []byte("BT /F1 12 Tf 72 720 Td (hi) Tj ET"))
	contentRef := doc.Add(content)

	page := object.NewDict()
	page.Set("Type", object.Name("Page"))
	page.Set("Contents", object.Reference{To: contentRef})
	pageRef := doc.Add(page)

	pages := object.NewDict()
	pages.Set("Type", object.Name("Pages"))
	pages.Set("Kids", object.NewArray(object.Reference{To: pageRef}))
	pages.Set("Count", object.Integer(1))
	pagesRef := doc.Add(pages)
	page.Set("Parent", object.Reference{To: pagesRef})

	catalog := object.NewDict()
	catalog.Set("Type", object.Name("Catalog"))
	catalog.Set("Pages", object.Reference{To: pagesRef})
	catRef := doc.Add(catalog)

	doc.Trailer.Set("Root", object.Reference{To: catRef})
	return doc
}

func render(t *testing.T, doc *object.Document, cfg writer.Config) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := writer.Write(doc, &buf, cfg); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// findPageContent resolves Root -> Pages -> first Kid -> Contents.
func findPageContent(t *testing.T, doc *object.Document) *object.Stream {
	t.Helper()
	cat, ok := doc.Dict(mustVal(t, doc.Trailer, "Root"))
	if !ok {
		t.Fatal("Root does not resolve to a dictionary")
	}
	pages, ok := doc.Dict(mustVal(t, cat, "Pages"))
	if !ok {
		t.Fatal("Pages does not resolve")
	}
	kids, ok := doc.Array(mustVal(t, pages, "Kids"))
	if !ok || kids.Len() != 1 {
		t.Fatal("Kids does not resolve to a one-element array")
	}
	kid, _ := kids.At(0)
	page, ok := doc.Dict(kid)
	if !ok {
		t.Fatal("page does not resolve")
	}
	st, ok := doc.Stream(mustVal(t, page, "Contents"))
	if !ok {
		t.Fatal("Contents does not resolve to a stream")
	}
	return st
}

func mustVal(t *testing.T, d *object.Dict, key string) object.Object {
	t.Helper()
	v, ok := d.Get(key)
	if !ok {
		t.Fatalf("key %s missing", key)
	}
	return v
}

func TestParseClassicRoundTrip(t *testing.T) {
	data := render(t, fixtureDoc(), writer.Config{})
	doc, err := ParseBytes(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	st := findPageContent(t, doc)
	if !bytes.Contains(st.Data, []byte("(hi) Tj")) {
		t.Fatalf("content stream = %q", st.Data)
	}
	if doc.Version != "1.7" {
		t.Fatalf("version = %q", doc.Version)
	}
}

func TestParseObjectStreamRoundTrip(t *testing.T) {
	data := render(t, fixtureDoc(), writer.Config{CompressStreams: true, ObjectStreams: true})
	if !bytes.Contains(data, []byte("/ObjStm")) {
		t.Fatal("compacted output carries no object stream")
	}
	doc, err := ParseBytes(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	st := findPageContent(t, doc)

	names, params := filters.ForStream(doc, st.Dict)
	payload := st.Data
	if len(names) > 0 {
		payload, err = filters.Default().Decode(context.Background(), payload, names, params)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Contains(payload, []byte("(hi) Tj")) {
		t.Fatalf("content stream = %q", payload)
	}
}

func TestParseRejectsEncrypted(t *testing.T) {
	doc := fixtureDoc()
	enc := object.NewDict()
	enc.Set("Filter", object.Name("Standard"))
	doc.Trailer.Set("Encrypt", object.Reference{To: doc.Add(enc)})

	data := render(t, doc, writer.Config{})
	_, err := ParseBytes(context.Background(), data)
	if !errors.Is(err, ErrEncrypted) {
		t.Fatalf("err = %v, want ErrEncrypted", err)
	}
}

func TestParseRepairsBrokenStartXRef(t *testing.T) {
	data := render(t, fixtureDoc(), writer.Config{})
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		t.Fatal("no startxref in output")
	}
	broken := append([]byte(nil), data[:idx]...)
	broken = append(broken, []byte("startxref\n999999999\n%%EOF\n")...)

	doc, err := ParseBytes(context.Background(), broken)
	if err != nil {
		t.Fatal(err)
	}
	st := findPageContent(t, doc)
	if !bytes.Contains(st.Data, []byte("(hi) Tj")) {
		t.Fatalf("content stream = %q", st.Data)
	}
}

func TestParseIndirectStreamLength(t *testing.T) {
	// Hand-assembled file relying on xref repair; the stream declares its
	// Length through an indirect reference.
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj\n<< /Length 2 0 R >>\nstream\nhello world\nendstream\nendobj\n")
	buf.WriteString("2 0 obj\n11\nendobj\n")
	buf.WriteString("3 0 obj\n<< /Type /Catalog >>\nendobj\n")
	buf.WriteString("trailer\n<< /Root 3 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n999999\n%%%%EOF\n")

	doc, err := ParseBytes(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	st, ok := doc.Stream(object.Reference{To: object.Ref{Num: 1}})
	if !ok {
		t.Fatal("object 1 is not a stream")
	}
	if string(st.Data) != "hello world" {
		t.Fatalf("stream data = %q", st.Data)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if _, err := ParseBytes(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
