package compress

import (
	"errors"
	"fmt"

	"pdfsqueeze/document"
	"pdfsqueeze/object"
)

// minImageDim is the eligibility threshold: re-encoding icons and glyph
// assets below it tends to grow them instead of shrinking them.
const minImageDim = 100

// candidate is one image stream referenced from a page's XObject
// dictionary that passed the size filters.
type candidate struct {
	name   string
	stream *object.Stream
	width  int64
	height int64
}

// scanPage enumerates a page's eligible image streams in resource-name
// order. A malformed resource dictionary fails the page, which the caller
// absorbs.
func (c *Compressor) scanPage(doc *document.Document, page *document.Page) ([]candidate, error) {
	res := page.Resources()
	if res == nil {
		return nil, nil
	}
	xobjObj, ok := res.Get("XObject")
	if !ok {
		return nil, nil
	}
	xobjects, ok := doc.COS.Dict(xobjObj)
	if !ok {
		return nil, errors.New("compress: XObject entry is not a dictionary")
	}

	var out []candidate
	for _, name := range xobjects.Keys() {
		entry, ok := xobjects.Get(name)
		if !ok {
			continue
		}
		st, ok := doc.COS.Stream(entry)
		if !ok {
			continue
		}
		if st.Dict == nil {
			return nil, fmt.Errorf("compress: resource %s has no stream dictionary", name)
		}
		if subtype, _ := doc.COS.Name(dictVal(st.Dict, "Subtype")); subtype != "Image" {
			continue
		}
		width, wok := doc.COS.DictInt(st.Dict, "Width")
		height, hok := doc.COS.DictInt(st.Dict, "Height")
		if !wok || !hok || width <= 0 || height <= 0 {
			continue
		}
		if width < minImageDim || height < minImageDim {
			continue
		}
		out = append(out, candidate{name: name, stream: st, width: width, height: height})
	}
	return out, nil
}

func dictVal(d *object.Dict, key string) object.Object {
	v, _ := d.Get(key)
	return v
}
