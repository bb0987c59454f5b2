// Package overlay stamps generated content onto existing pages: diagonal
// text watermarks and signature blocks. Overlays are built as Form
// XObjects sized to the target page and invoked from a guarded content
// stream appended after the page's own content.
package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"pdfsqueeze/document"
	"pdfsqueeze/object"
)

// Watermark describes a diagonal text watermark.
type Watermark struct {
	Text     string
	Opacity  float64 // 0..1, default 0.3
	FontSize float64 // default 60
}

// Position anchors a signature block on the page.
type Position string

const (
	BottomRight  Position = "bottom-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	TopRight     Position = "top-right"
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
)

// Signature describes a signature text block.
type Signature struct {
	Text        string
	Position    Position // default BottomRight
	FontSize    float64  // default 12
	IncludeDate bool
}

// ApplyWatermark stamps wm onto the pages at the given zero-based
// indices; nil selects every page.
func ApplyWatermark(doc *document.Document, wm Watermark, pageIndices []int) error {
	if strings.TrimSpace(wm.Text) == "" {
		return errors.New("overlay: watermark text is empty")
	}
	if wm.Opacity <= 0 || wm.Opacity > 1 {
		wm.Opacity = 0.3
	}
	if wm.FontSize <= 0 {
		wm.FontSize = 60
	}
	return forEachPage(doc, pageIndices, func(page *document.Page) error {
		box := page.MediaBox()
		w, h := box[2]-box[0], box[3]-box[1]
		form := watermarkForm(doc.COS, wm, w, h)
		return stamp(doc, page, form, "WmOv")
	})
}

// ApplySignature stamps sig onto the pages at the given zero-based
// indices; nil selects the last page only.
func ApplySignature(doc *document.Document, sig Signature, pageIndices []int) error {
	if strings.TrimSpace(sig.Text) == "" {
		return errors.New("overlay: signature text is empty")
	}
	if sig.FontSize <= 0 {
		sig.FontSize = 12
	}
	if sig.Position == "" {
		sig.Position = BottomRight
	}
	if pageIndices == nil {
		n, err := doc.PageCount()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("overlay: document has no pages")
		}
		pageIndices = []int{n - 1}
	}
	return forEachPage(doc, pageIndices, func(page *document.Page) error {
		box := page.MediaBox()
		w, h := box[2]-box[0], box[3]-box[1]
		form := signatureForm(doc.COS, sig, w, h)
		return stamp(doc, page, form, "SigOv")
	})
}

func forEachPage(doc *document.Document, indices []int, fn func(*document.Page) error) error {
	pages, err := doc.Pages()
	if err != nil {
		return err
	}
	if indices == nil {
		for _, p := range pages {
			if err := fn(p); err != nil {
				return err
			}
		}
		return nil
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(pages) {
			return fmt.Errorf("overlay: page index %d out of range", idx)
		}
		if err := fn(pages[idx]); err != nil {
			return err
		}
	}
	return nil
}

// watermarkForm builds a Form XObject with the text rotated 45 degrees
// about the page center at reduced opacity.
func watermarkForm(cos *object.Document, wm Watermark, w, h float64) object.Ref {
	// Rough Helvetica advance of 0.5 em centers the run on the diagonal.
	textW := 0.5 * wm.FontSize * float64(len(wm.Text))
	cosA := math.Sqrt2 / 2
	cx, cy := w/2, h/2
	tx := cx - textW/2*cosA
	ty := cy - textW/2*cosA

	var content bytes.Buffer
	fmt.Fprintf(&content, "q /GS0 gs BT /F1 %.1f Tf 0.6 0.6 0.6 rg\n", wm.FontSize)
	fmt.Fprintf(&content, "%.4f %.4f %.4f %.4f %.2f %.2f Tm (%s) Tj ET Q\n",
		cosA, cosA, -cosA, cosA, tx, ty, escapeText(wm.Text))

	gs := object.NewDict()
	gs.Set("Type", object.Name("ExtGState"))
	gs.Set("ca", object.Real(wm.Opacity))
	gs.Set("CA", object.Real(wm.Opacity))
	return formXObject(cos, content.Bytes(), w, h, gs)
}

// signatureForm builds a Form XObject anchoring the signature block in a
// page corner, with an optional date line underneath.
func signatureForm(cos *object.Document, sig Signature, w, h float64) object.Ref {
	lines := []string{sig.Text}
	if sig.IncludeDate {
		lines = append(lines, time.Now().Format("2006-01-02"))
	}
	leading := sig.FontSize * 1.2
	blockW := 0.0
	for _, l := range lines {
		if lw := 0.5 * sig.FontSize * float64(len(l)); lw > blockW {
			blockW = lw
		}
	}
	const inset = 36.0
	x, y := inset, inset+leading*float64(len(lines)-1)
	switch sig.Position {
	case BottomRight:
		x = w - inset - blockW
	case BottomCenter:
		x = (w - blockW) / 2
	case TopLeft:
		y = h - inset
	case TopRight:
		x, y = w-inset-blockW, h-inset
	case TopCenter:
		x, y = (w-blockW)/2, h-inset
	}

	var content bytes.Buffer
	fmt.Fprintf(&content, "q BT /F1 %.1f Tf 0.2 0.2 0.2 rg %.2f TL %.2f %.2f Td\n",
		sig.FontSize, leading, x, y)
	for i, l := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapeText(l))
	}
	content.WriteString("ET Q\n")
	return formXObject(cos, content.Bytes(), w, h, nil)
}

func formXObject(cos *object.Document, content []byte, w, h float64, gs *object.Dict) object.Ref {
	fonts := object.NewDict()
	font := object.NewDict()
	font.Set("Type", object.Name("Font"))
	font.Set("Subtype", object.Name("Type1"))
	font.Set("BaseFont", object.Name("Helvetica"))
	fonts.Set("F1", object.Reference{To: cos.Add(font)})
	res := object.NewDict()
	res.Set("Font", fonts)
	if gs != nil {
		states := object.NewDict()
		states.Set("GS0", object.Reference{To: cos.Add(gs)})
		res.Set("ExtGState", states)
	}

	dict := object.NewDict()
	dict.Set("Type", object.Name("XObject"))
	dict.Set("Subtype", object.Name("Form"))
	bbox := object.NewArray(object.Integer(0), object.Integer(0), object.Real(w), object.Real(h))
	dict.Set("BBox", bbox)
	dict.Set("Resources", res)
	return cos.Add(object.NewStream(dict, content))
}

// stamp registers the form under a fresh resource name and appends a
// guarded invocation after the page's own content, so a page that leaves
// its graphics state dirty cannot distort the overlay.
func stamp(doc *document.Document, page *document.Page, form object.Ref, prefix string) error {
	res := directResources(doc, page)
	xobjects, ok := doc.COS.Dict(dictVal(res, "XObject"))
	if !ok {
		xobjects = object.NewDict()
		res.Set("XObject", xobjects)
	}
	name := prefix
	for i := 0; xobjects.Has(name); i++ {
		name = fmt.Sprintf("%s%d", prefix, i)
	}
	xobjects.Set(name, object.Reference{To: form})

	prelude := doc.COS.Add(object.NewStream(nil, []byte("q\n")))
	invoke := doc.COS.Add(object.NewStream(nil, []byte(fmt.Sprintf("Q q /%s Do Q\n", name))))

	contents := object.NewArray(object.Reference{To: prelude})
	switch v := dictVal(page.Dict, "Contents").(type) {
	case object.Reference:
		contents.Append(v)
	case *object.Array:
		contents.Append(v.Items...)
	}
	contents.Append(object.Reference{To: invoke})
	page.Dict.Set("Contents", contents)
	return nil
}

// directResources returns a resource dictionary owned by the page itself,
// cloning an inherited one so siblings are not affected.
func directResources(doc *document.Document, page *document.Page) *object.Dict {
	if resObj, ok := page.Dict.Get("Resources"); ok {
		if res, ok := doc.COS.Dict(resObj); ok {
			return res
		}
	}
	var res *object.Dict
	if inh := page.Resources(); inh != nil {
		res = inh.Clone()
	} else {
		res = object.NewDict()
	}
	page.Dict.Set("Resources", res)
	return res
}

func dictVal(d *object.Dict, key string) object.Object {
	v, _ := d.Get(key)
	return v
}

func escapeText(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteRune(r)
		default:
			if r < 0x20 || r > 0x7E {
				out.WriteByte('?')
				continue
			}
			out.WriteRune(r)
		}
	}
	return out.String()
}
