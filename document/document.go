// Package document provides the file-level view over the object arena:
// opening and saving, page tree traversal, page extraction and merging.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"pdfsqueeze/object"
	"pdfsqueeze/parser"
	"pdfsqueeze/writer"
)

// ErrEncrypted mirrors the parser sentinel at the document level.
var ErrEncrypted = parser.ErrEncrypted

// Document wraps the raw object arena with file-level operations.
type Document struct {
	COS *object.Document
}

// Open parses an in-memory PDF file.
func Open(ctx context.Context, data []byte) (*Document, error) {
	cos, err := parser.ParseBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	return &Document{COS: cos}, nil
}

// OpenReader parses a PDF file from a random-access reader.
func OpenReader(ctx context.Context, r io.ReaderAt, size int64) (*Document, error) {
	cos, err := parser.Parse(ctx, r, size)
	if err != nil {
		return nil, err
	}
	return &Document{COS: cos}, nil
}

// OpenFile parses a PDF file from disk.
func OpenFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, data)
}

// SaveOptions selects the output shape.
type SaveOptions struct {
	CompressStreams bool
	ObjectStreams   bool
}

// Save serializes the document to w.
func (d *Document) Save(w io.Writer, opts SaveOptions) error {
	return writer.Write(d.COS, w, writer.Config{
		CompressStreams: opts.CompressStreams,
		ObjectStreams:   opts.ObjectStreams,
	})
}

// SaveFile serializes the document to path.
func (d *Document) SaveFile(path string, opts SaveOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Save(f, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RemoveUnreferenced drops every object unreachable from the trailer and
// returns the number removed.
func (d *Document) RemoveUnreferenced() int {
	return d.COS.Sweep()
}

// Catalog returns the document catalog dictionary.
func (d *Document) Catalog() (*object.Dict, error) {
	rootObj, ok := d.COS.Trailer.Get("Root")
	if !ok {
		return nil, errors.New("document: trailer has no Root")
	}
	cat, ok := d.COS.Dict(rootObj)
	if !ok {
		return nil, errors.New("document: Root is not a dictionary")
	}
	return cat, nil
}

// Append merges every page of other onto the end of d. Objects from other
// are renumbered above d's watermark before being adopted.
func (d *Document) Append(other *Document) error {
	pagesRef, pagesDict, err := d.pagesNode()
	if err != nil {
		return err
	}
	otherPages, err := other.Pages()
	if err != nil {
		return err
	}

	offset := d.COS.MaxNum()
	remap := func(ref object.Ref) object.Ref {
		return object.Ref{Num: ref.Num + offset, Gen: ref.Gen}
	}
	for ref, obj := range other.COS.Objects {
		d.COS.Put(remap(ref), renumber(obj, remap))
	}

	kids, ok := d.COS.Array(mustGet(pagesDict, "Kids"))
	if !ok {
		return errors.New("document: page tree has no Kids")
	}
	for _, p := range otherPages {
		newRef := remap(p.Ref)
		pageDict, ok := d.COS.Dict(object.Reference{To: newRef})
		if !ok {
			return fmt.Errorf("document: adopted page %s is not a dictionary", newRef)
		}
		// Re-parent and pin inherited attributes that no longer hold
		// once the page leaves its old tree.
		pageDict.Set("Parent", object.Reference{To: pagesRef})
		pinInherited(pageDict, p)
		kids.Append(object.Reference{To: newRef})
	}
	count, _ := d.COS.DictInt(pagesDict, "Count")
	pagesDict.Set("Count", object.Integer(count+int64(len(otherPages))))
	return nil
}

// ExtractPages returns a new document holding only the pages at the given
// zero-based indices, in the given order.
func (d *Document) ExtractPages(indices []int) (*Document, error) {
	pages, err := d.Pages()
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(pages) {
			return nil, fmt.Errorf("document: page index %d out of range", idx)
		}
	}

	out := object.NewDocument()
	out.Version = d.COS.Version
	for ref, obj := range d.COS.Objects {
		out.Put(ref, obj)
	}

	pagesDict := object.NewDict()
	pagesDict.Set("Type", object.Name("Pages"))
	kids := object.NewArray()
	pagesDict.Set("Kids", kids)
	pagesDict.Set("Count", object.Integer(len(indices)))
	pagesRef := out.Add(pagesDict)

	for _, idx := range indices {
		p := pages[idx]
		pageDict := p.Dict.Clone()
		pageDict.Set("Parent", object.Reference{To: pagesRef})
		pinInherited(pageDict, p)
		kids.Append(object.Reference{To: out.Add(pageDict)})
	}

	catalog := object.NewDict()
	catalog.Set("Type", object.Name("Catalog"))
	catalog.Set("Pages", object.Reference{To: pagesRef})
	catRef := out.Add(catalog)

	out.Trailer = object.NewDict()
	out.Trailer.Set("Root", object.Reference{To: catRef})
	if info, ok := d.COS.Trailer.Get("Info"); ok {
		out.Trailer.Set("Info", info)
	}
	out.Sweep()
	return &Document{COS: out}, nil
}

// pinInherited copies attributes a page inherited from its old ancestors
// onto the page dictionary itself.
func pinInherited(pageDict *object.Dict, p *Page) {
	if !pageDict.Has("Resources") && p.resources != nil {
		pageDict.Set("Resources", p.resources)
	}
	if !pageDict.Has("MediaBox") && p.mediaBox != nil {
		pageDict.Set("MediaBox", p.mediaBox)
	}
	if !pageDict.Has("Rotate") && p.rotate != 0 {
		pageDict.Set("Rotate", object.Integer(p.rotate))
	}
}

// renumber deep-copies obj with every reference shifted by remap.
func renumber(obj object.Object, remap func(object.Ref) object.Ref) object.Object {
	switch v := obj.(type) {
	case object.Reference:
		return object.Reference{To: remap(v.To)}
	case *object.Array:
		out := object.NewArray()
		for _, item := range v.Items {
			out.Append(renumber(item, remap))
		}
		return out
	case *object.Dict:
		out := object.NewDict()
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			out.Set(k, renumber(item, remap))
		}
		return out
	case *object.Stream:
		dict, _ := renumber(v.Dict, remap).(*object.Dict)
		out := &object.Stream{Dict: dict}
		out.SetData(v.Data)
		return out
	default:
		return obj
	}
}

func mustGet(d *object.Dict, key string) object.Object {
	v, _ := d.Get(key)
	return v
}
