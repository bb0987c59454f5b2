package compress

import (
	"context"
	"fmt"
	"image"

	"pdfsqueeze/document"
	"pdfsqueeze/filters"
	"pdfsqueeze/imaging"
)

type codecPath int

const (
	pathSkip codecPath = iota
	pathDCT
	pathRaw
)

// classification is the classifier's verdict for one candidate: which
// codec path applies, plus everything the codec needs to run it.
type classification struct {
	path   codecPath
	reason string

	model   imaging.ColorModel
	width   int
	height  int
	payload []byte
}

func (cl classification) decode() (image.Image, error) {
	if cl.path == pathDCT {
		return imaging.DecodeDCT(cl.payload)
	}
	return imaging.DecodeRaw(cl.payload, cl.width, cl.height, cl.model)
}

func skip(format string, args ...any) classification {
	return classification{path: pathSkip, reason: fmt.Sprintf(format, args...)}
}

// classify decides the codec path for one candidate. Only 8-bit images in
// the Gray/RGB/CMYK color models are eligible; DCT payloads go to the
// already-encoded path and Flate-or-unfiltered payloads to the raw-sample
// path after an exact length check.
func (c *Compressor) classify(ctx context.Context, doc *document.Document, cand candidate) classification {
	dict := cand.stream.Dict

	bpc, ok := doc.COS.DictInt(dict, "BitsPerComponent")
	if !ok || bpc != 8 {
		return skip("bits per component %d", bpc)
	}

	model := c.colorModel(doc, cand)

	names, params := filters.ForStream(doc.COS, dict)
	if len(names) > 1 {
		return skip("filter chain %v", names)
	}
	filter := ""
	if len(names) == 1 {
		filter = names[0]
	}

	switch filter {
	case "DCTDecode":
		return classification{path: pathDCT, model: model, payload: cand.stream.Data}
	case "", "FlateDecode":
		if model == imaging.ColorUnsupported {
			return skip("unsupported color space")
		}
		data := cand.stream.Data
		if filter == "FlateDecode" {
			var err error
			data, err = c.pipeline.Decode(ctx, data, names, params)
			if err != nil {
				return skip("flate decode: %v", err)
			}
		}
		want := int(cand.width) * int(cand.height) * model.Components()
		if len(data) != want {
			return skip("sample length %d, want %d", len(data), want)
		}
		return classification{
			path:    pathRaw,
			model:   model,
			width:   int(cand.width),
			height:  int(cand.height),
			payload: data,
		}
	default:
		return skip("unsupported filter %s", filter)
	}
}

// colorModel maps the declared ColorSpace onto the closed model set.
// ICC-based, indexed and separation spaces all land on Unsupported.
func (c *Compressor) colorModel(doc *document.Document, cand candidate) imaging.ColorModel {
	csObj, ok := cand.stream.Dict.Get("ColorSpace")
	if !ok {
		return imaging.ColorUnsupported
	}
	name, ok := doc.COS.Name(csObj)
	if !ok {
		return imaging.ColorUnsupported
	}
	return imaging.ColorModelFromName(name)
}
