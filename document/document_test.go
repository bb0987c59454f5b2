package document

import (
	"bytes"
	"context"
	"testing"

	"pdfsqueeze/object"
)

// buildDoc assembles a document whose page tree inherits Resources and
// MediaBox from the root node; page 2 overrides the MediaBox.
func buildDoc(t *testing.T) *Document {
	t.Helper()
	cos := object.NewDocument()

	res := object.NewDict()
	res.Set("Font", object.NewDict())
	resRef := cos.Add(res)

	pages := object.NewDict()
	pages.Set("Type", object.Name("Pages"))
	pages.Set("Resources", object.Reference{To: resRef})
	pages.Set("MediaBox", object.NewArray(object.Integer(0), object.Integer(0), object.Integer(612), object.Integer(792)))
	kids := object.NewArray()
	pages.Set("Kids", kids)
	pagesRef := cos.Add(pages)

	page1 := object.NewDict()
	page1.Set("Type", object.Name("Page"))
	page1.Set("Parent", object.Reference{To: pagesRef})
	kids.Append(object.Reference{To: cos.Add(page1)})

	page2 := object.NewDict()
	page2.Set("Type", object.Name("Page"))
	page2.Set("Parent", object.Reference{To: pagesRef})
	page2.Set("MediaBox", object.NewArray(object.Integer(0), object.Integer(0), object.Integer(200), object.Integer(100)))
	kids.Append(object.Reference{To: cos.Add(page2)})

	pages.Set("Count", object.Integer(2))

	catalog := object.NewDict()
	catalog.Set("Type", object.Name("Catalog"))
	catalog.Set("Pages", object.Reference{To: pagesRef})
	cos.Trailer.Set("Root", object.Reference{To: cos.Add(catalog)})
	return &Document{COS: cos}
}

func TestPagesInheritance(t *testing.T) {
	doc := buildDoc(t)
	pages, err := doc.Pages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2", len(pages))
	}
	if pages[0].Resources() == nil {
		t.Fatal("page 1 did not inherit Resources")
	}
	if box := pages[0].MediaBox(); box != [4]float64{0, 0, 612, 792} {
		t.Fatalf("page 1 MediaBox = %v", box)
	}
	if box := pages[1].MediaBox(); box != [4]float64{0, 0, 200, 100} {
		t.Fatalf("page 2 MediaBox = %v; override not honored", box)
	}
}

func TestPageTreeCycleIsBounded(t *testing.T) {
	doc := buildDoc(t)
	pagesRef, pagesDict, err := doc.pagesNode()
	if err != nil {
		t.Fatal(err)
	}
	kids, _ := doc.COS.Array(mustGet(pagesDict, "Kids"))
	kids.Append(object.Reference{To: pagesRef}) // self-loop

	pages, err := doc.Pages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2 despite cycle", len(pages))
	}
}

func TestExtractPages(t *testing.T) {
	doc := buildDoc(t)
	out, err := doc.ExtractPages([]int{1})
	if err != nil {
		t.Fatal(err)
	}
	pages, err := out.Pages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("extracted %d pages, want 1", len(pages))
	}
	if box := pages[0].MediaBox(); box != [4]float64{0, 0, 200, 100} {
		t.Fatalf("extracted page MediaBox = %v", box)
	}
	if pages[0].Resources() == nil {
		t.Fatal("inherited Resources were not pinned onto the extracted page")
	}
}

func TestExtractPagesRejectsOutOfRange(t *testing.T) {
	doc := buildDoc(t)
	if _, err := doc.ExtractPages([]int{5}); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestAppend(t *testing.T) {
	a := buildDoc(t)
	b := buildDoc(t)
	if err := a.Append(b); err != nil {
		t.Fatal(err)
	}
	pages, err := a.Pages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 4 {
		t.Fatalf("merged page count = %d, want 4", len(pages))
	}
	// Adopted pages must parent into a's tree.
	pagesRef, _, err := a.pagesNode()
	if err != nil {
		t.Fatal(err)
	}
	parent, ok := pages[2].Dict.Get("Parent")
	if !ok || parent.(object.Reference).To != pagesRef {
		t.Fatalf("adopted page Parent = %v, want %v", parent, pagesRef)
	}
}

func TestSaveAndReopen(t *testing.T) {
	doc := buildDoc(t)
	var buf bytes.Buffer
	if err := doc.Save(&buf, SaveOptions{CompressStreams: true, ObjectStreams: true}); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	n, err := reopened.PageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("reopened page count = %d, want 2", n)
	}
}
