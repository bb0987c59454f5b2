package document

import (
	"errors"
	"fmt"

	"pdfsqueeze/object"
)

// maxPageTreeDepth bounds traversal of malformed trees.
const maxPageTreeDepth = 64

// Page is one leaf of the page tree together with the attribute values it
// inherits from its ancestors.
type Page struct {
	Ref  object.Ref
	Dict *object.Dict

	resources *object.Dict
	mediaBox  *object.Array
	rotate    int64
}

// Resources returns the page's resource dictionary, inherited or direct.
// It is nil for pages without resources.
func (p *Page) Resources() *object.Dict { return p.resources }

// MediaBox returns the effective media box as [llx lly urx ury], falling
// back to US Letter when none is declared anywhere on the path.
func (p *Page) MediaBox() [4]float64 {
	box := [4]float64{0, 0, 612, 792}
	if p.mediaBox == nil || p.mediaBox.Len() < 4 {
		return box
	}
	for i := 0; i < 4; i++ {
		v, _ := p.mediaBox.At(i)
		switch n := v.(type) {
		case object.Integer:
			box[i] = float64(n)
		case object.Real:
			box[i] = float64(n)
		}
	}
	return box
}

// Rotate returns the effective page rotation in degrees.
func (p *Page) Rotate() int64 { return p.rotate }

// PageCount returns the number of leaf pages.
func (d *Document) PageCount() (int, error) {
	pages, err := d.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// Pages walks the page tree and returns its leaves in display order.
func (d *Document) Pages() ([]*Page, error) {
	rootRef, root, err := d.pagesNode()
	if err != nil {
		return nil, err
	}
	var out []*Page
	visited := map[object.Ref]bool{rootRef: true}
	err = d.walkPages(root, inherited{}, visited, 0, &out)
	return out, err
}

type inherited struct {
	resources *object.Dict
	mediaBox  *object.Array
	rotate    int64
}

func (d *Document) walkPages(node *object.Dict, inh inherited, visited map[object.Ref]bool, depth int, out *[]*Page) error {
	if depth > maxPageTreeDepth {
		return errors.New("document: page tree too deep")
	}
	if res, ok := d.COS.Dict(mustGet(node, "Resources")); ok {
		inh.resources = res
	}
	if mb, ok := d.COS.Array(mustGet(node, "MediaBox")); ok {
		inh.mediaBox = mb
	}
	if rot, ok := d.COS.DictInt(node, "Rotate"); ok {
		inh.rotate = rot
	}
	kids, ok := d.COS.Array(mustGet(node, "Kids"))
	if !ok {
		return errors.New("document: page tree node has no Kids")
	}
	for _, kid := range kids.Items {
		ref, ok := kid.(object.Reference)
		if !ok {
			continue
		}
		if visited[ref.To] {
			continue
		}
		visited[ref.To] = true
		kidDict, ok := d.COS.Dict(kid)
		if !ok {
			continue
		}
		typ, _ := kidDict.Name("Type")
		switch typ {
		case "Pages":
			if err := d.walkPages(kidDict, inh, visited, depth+1, out); err != nil {
				return err
			}
		default:
			// Treat untyped leaves as pages; broken generators omit
			// the Type entry.
			p := &Page{Ref: ref.To, Dict: kidDict, resources: inh.resources, mediaBox: inh.mediaBox, rotate: inh.rotate}
			if res, ok := d.COS.Dict(mustGet(kidDict, "Resources")); ok {
				p.resources = res
			}
			if mb, ok := d.COS.Array(mustGet(kidDict, "MediaBox")); ok {
				p.mediaBox = mb
			}
			if rot, ok := d.COS.DictInt(kidDict, "Rotate"); ok {
				p.rotate = rot
			}
			*out = append(*out, p)
		}
	}
	return nil
}

func (d *Document) pagesRootRef() (object.Ref, error) {
	cat, err := d.Catalog()
	if err != nil {
		return object.Ref{}, err
	}
	pagesObj, ok := cat.Get("Pages")
	if !ok {
		return object.Ref{}, errors.New("document: catalog has no Pages")
	}
	ref, ok := pagesObj.(object.Reference)
	if !ok {
		return object.Ref{}, errors.New("document: Pages is not indirect")
	}
	return ref.To, nil
}

func (d *Document) pagesNode() (object.Ref, *object.Dict, error) {
	ref, err := d.pagesRootRef()
	if err != nil {
		return object.Ref{}, nil, err
	}
	node, ok := d.COS.Dict(object.Reference{To: ref})
	if !ok {
		return object.Ref{}, nil, fmt.Errorf("document: page tree root %s is not a dictionary", ref)
	}
	return ref, node, nil
}
