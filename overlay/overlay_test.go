package overlay

import (
	"bytes"
	"context"
	"testing"

	"pdfsqueeze/builder"
	"pdfsqueeze/document"
	"pdfsqueeze/object"
)

func testDoc(t *testing.T, pages int) *document.Document {
	t.Helper()
	var paragraphs []builder.Paragraph
	doc := builder.Build(paragraphs)
	for i := 1; i < pages; i++ {
		extra := builder.Build(paragraphs)
		if err := doc.Append(extra); err != nil {
			t.Fatal(err)
		}
	}
	return doc
}

func overlayNames(t *testing.T, doc *document.Document, pageIdx int) []string {
	t.Helper()
	pages, err := doc.Pages()
	if err != nil {
		t.Fatal(err)
	}
	res := pages[pageIdx].Resources()
	if res == nil {
		return nil
	}
	xobjects, ok := doc.COS.Dict(dictVal(res, "XObject"))
	if !ok {
		return nil
	}
	return xobjects.Keys()
}

func TestWatermarkStampsEveryPage(t *testing.T) {
	doc := testDoc(t, 3)
	if err := ApplyWatermark(doc, Watermark{Text: "CONFIDENTIAL"}, nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		names := overlayNames(t, doc, i)
		if len(names) != 1 || names[0] != "WmOv" {
			t.Fatalf("page %d overlays = %v", i+1, names)
		}
	}
}

func TestWatermarkRejectsEmptyText(t *testing.T) {
	doc := testDoc(t, 1)
	if err := ApplyWatermark(doc, Watermark{Text: "   "}, nil); err == nil {
		t.Fatal("expected error for blank watermark text")
	}
}

func TestWatermarkContentsStayValid(t *testing.T) {
	doc := testDoc(t, 1)
	if err := ApplyWatermark(doc, Watermark{Text: "DRAFT"}, nil); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := doc.Save(&buf, document.SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	reopened, err := document.Open(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	pages, err := reopened.Pages()
	if err != nil {
		t.Fatal(err)
	}
	contents, ok := reopened.COS.Array(dictVal(pages[0].Dict, "Contents"))
	if !ok {
		t.Fatal("Contents is not an array after stamping")
	}
	if contents.Len() < 3 {
		t.Fatalf("Contents has %d parts, want prelude, body and overlay", contents.Len())
	}
	last, _ := contents.At(contents.Len() - 1)
	st, ok := reopened.COS.Stream(last)
	if !ok {
		t.Fatal("overlay invocation is not a stream")
	}
	if !bytes.Contains(st.Data, []byte("/WmOv Do")) {
		t.Fatalf("overlay invocation = %q", st.Data)
	}
}

func TestSignatureDefaultsToLastPage(t *testing.T) {
	doc := testDoc(t, 3)
	if err := ApplySignature(doc, Signature{Text: "A. Reviewer"}, nil); err != nil {
		t.Fatal(err)
	}
	if names := overlayNames(t, doc, 2); len(names) != 1 || names[0] != "SigOv" {
		t.Fatalf("last page overlays = %v", names)
	}
	for i := 0; i < 2; i++ {
		if names := overlayNames(t, doc, i); len(names) != 0 {
			t.Fatalf("page %d unexpectedly stamped: %v", i+1, names)
		}
	}
}

func TestSignatureOnChosenPages(t *testing.T) {
	doc := testDoc(t, 3)
	if err := ApplySignature(doc, Signature{Text: "X", Position: TopLeft}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if names := overlayNames(t, doc, 0); len(names) != 1 {
		t.Fatalf("page 1 overlays = %v", names)
	}
	if names := overlayNames(t, doc, 2); len(names) != 0 {
		t.Fatalf("page 3 unexpectedly stamped: %v", names)
	}
}

func TestRepeatedStampsGetDistinctNames(t *testing.T) {
	doc := testDoc(t, 1)
	if err := ApplyWatermark(doc, Watermark{Text: "ONE"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := ApplyWatermark(doc, Watermark{Text: "TWO"}, nil); err != nil {
		t.Fatal(err)
	}
	names := overlayNames(t, doc, 0)
	if len(names) != 2 {
		t.Fatalf("overlays = %v, want two distinct names", names)
	}
}

func TestWatermarkOpacityState(t *testing.T) {
	doc := testDoc(t, 1)
	if err := ApplyWatermark(doc, Watermark{Text: "W", Opacity: 0.5}, nil); err != nil {
		t.Fatal(err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatal(err)
	}
	xobjects, _ := doc.COS.Dict(dictVal(pages[0].Resources(), "XObject"))
	form, ok := doc.COS.Stream(dictVal(xobjects, "WmOv"))
	if !ok {
		t.Fatal("watermark form missing")
	}
	formRes, ok := doc.COS.Dict(dictVal(form.Dict, "Resources"))
	if !ok {
		t.Fatal("form has no resources")
	}
	states, ok := doc.COS.Dict(dictVal(formRes, "ExtGState"))
	if !ok {
		t.Fatal("form has no ExtGState")
	}
	gs, ok := doc.COS.Dict(dictVal(states, "GS0"))
	if !ok {
		t.Fatal("GS0 missing")
	}
	if v, _ := gs.Get("ca"); v != object.Real(0.5) {
		t.Fatalf("ca = %v, want 0.5", v)
	}
}
