// Package builder generates simple paginated text documents from styled
// paragraphs. It backs the text-only fallback of the office converter and
// is handy for constructing fixtures.
package builder

import (
	"bytes"
	"fmt"
	"strings"

	"pdfsqueeze/document"
	"pdfsqueeze/object"
)

// Style selects the paragraph treatment.
type Style int

const (
	StyleBody Style = iota
	StyleHeading1
	StyleHeading2
	StyleHeading3
)

// Paragraph is one styled block of text.
type Paragraph struct {
	Text  string
	Style Style
}

// US Letter with one-inch margins.
const (
	pageWidth  = 612.0
	pageHeight = 792.0
	margin     = 72.0
)

type styleSpec struct {
	font       string
	size       float64
	leading    float64
	spaceAfter float64
}

func specFor(s Style) styleSpec {
	switch s {
	case StyleHeading1:
		return styleSpec{font: "F2", size: 18, leading: 22, spaceAfter: 10}
	case StyleHeading2:
		return styleSpec{font: "F2", size: 15, leading: 18, spaceAfter: 8}
	case StyleHeading3:
		return styleSpec{font: "F2", size: 13, leading: 16, spaceAfter: 6}
	default:
		return styleSpec{font: "F1", size: 11, leading: 14, spaceAfter: 6}
	}
}

// Build lays the paragraphs out over as many pages as needed and returns
// the finished document.
func Build(paragraphs []Paragraph) *document.Document {
	b := newBuilder()
	for _, p := range paragraphs {
		b.addParagraph(p)
	}
	return b.finish()
}

type builder struct {
	doc      *object.Document
	pagesRef object.Ref
	kids     *object.Array

	content bytes.Buffer
	cursorY float64
	pageHas bool
}

func newBuilder() *builder {
	doc := object.NewDocument()

	pages := object.NewDict()
	pages.Set("Type", object.Name("Pages"))
	kids := object.NewArray()
	pages.Set("Kids", kids)
	pages.Set("Count", object.Integer(0))
	pagesRef := doc.Add(pages)

	catalog := object.NewDict()
	catalog.Set("Type", object.Name("Catalog"))
	catalog.Set("Pages", object.Reference{To: pagesRef})
	catRef := doc.Add(catalog)
	doc.Trailer.Set("Root", object.Reference{To: catRef})

	b := &builder{doc: doc, pagesRef: pagesRef, kids: kids}
	b.cursorY = pageHeight - margin
	return b
}

func (b *builder) addParagraph(p Paragraph) {
	spec := specFor(p.Style)
	lines := wrap(p.Text, spec)
	if len(lines) == 0 {
		b.cursorY -= spec.leading
		return
	}
	for _, line := range lines {
		if b.cursorY-spec.leading < margin {
			b.flushPage()
		}
		b.cursorY -= spec.leading
		fmt.Fprintf(&b.content, "BT /%s %s Tf %s %s Td (%s) Tj ET\n",
			spec.font, num(spec.size), num(margin), num(b.cursorY), escapeText(line))
		b.pageHas = true
	}
	b.cursorY -= spec.spaceAfter
}

// wrap breaks text into lines that fit the usable width, estimating glyph
// advance at 0.5 em. Helvetica averages slightly under that, so lines err
// on the short side.
func wrap(text string, spec styleSpec) []string {
	usable := pageWidth - 2*margin
	maxChars := int(usable / (spec.size * 0.5))
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		need := len(word)
		if cur.Len() > 0 {
			need += cur.Len() + 1
		}
		if need > maxChars && cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		for len(word) > maxChars {
			lines = append(lines, word[:maxChars])
			word = word[maxChars:]
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func (b *builder) flushPage() {
	content := b.content.Bytes()
	b.content = bytes.Buffer{}
	b.cursorY = pageHeight - margin
	b.pageHas = false

	stream := object.NewStream(nil, append([]byte(nil), content...))
	contentRef := b.doc.Add(stream)

	page := object.NewDict()
	page.Set("Type", object.Name("Page"))
	page.Set("Parent", object.Reference{To: b.pagesRef})
	mediaBox := object.NewArray()
	mediaBox.Append(object.Integer(0))
	mediaBox.Append(object.Integer(0))
	mediaBox.Append(object.Integer(int(pageWidth)))
	mediaBox.Append(object.Integer(int(pageHeight)))
	page.Set("MediaBox", mediaBox)
	page.Set("Resources", b.resources())
	page.Set("Contents", object.Reference{To: contentRef})
	b.kids.Append(object.Reference{To: b.doc.Add(page)})
}

func (b *builder) resources() *object.Dict {
	fonts := object.NewDict()
	fonts.Set("F1", object.Reference{To: b.fontRef("Helvetica")})
	fonts.Set("F2", object.Reference{To: b.fontRef("Helvetica-Bold")})
	res := object.NewDict()
	res.Set("Font", fonts)
	return res
}

func (b *builder) fontRef(base string) object.Ref {
	// One font object per page keeps the builder stateless; the writer's
	// object stream packing absorbs the duplication.
	font := object.NewDict()
	font.Set("Type", object.Name("Font"))
	font.Set("Subtype", object.Name("Type1"))
	font.Set("BaseFont", object.Name(base))
	return b.doc.Add(font)
}

func (b *builder) finish() *document.Document {
	if b.pageHas || b.kids.Len() == 0 {
		b.flushPage()
	}
	pagesDict, _ := b.doc.Dict(object.Reference{To: b.pagesRef})
	pagesDict.Set("Count", object.Integer(b.kids.Len()))
	return &document.Document{COS: b.doc}
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
				// WinAnsi-unfriendly runes degrade to a placeholder.
				out.WriteByte('?')
				continue
			}
			out.WriteRune(r)
		}
	}
	return out.String()
}

func num(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
