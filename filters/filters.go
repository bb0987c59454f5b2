// Package filters implements the stream encodings used by the document
// layer. Decoders are composed into a pipeline in declaration order;
// FlateEncode is provided for the writer's stream compression pass.
package filters

import (
	"bytes"
	"context"
	stdascii85 "encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"pdfsqueeze/object"
)

// ErrUnknownFilter is returned when a stream names a filter the pipeline
// does not carry (JPXDecode, CCITTFaxDecode, JBIG2Decode, ...).
var ErrUnknownFilter = errors.New("filters: unknown filter")

// Decoder turns one encoded representation into the next.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params *object.Dict) ([]byte, error)
}

// Limits bounds decoding of untrusted input.
type Limits struct {
	MaxDecompressedSize int64
}

// Pipeline applies a filter chain to stream data.
type Pipeline struct {
	decoders []Decoder
	limits   Limits
}

// NewPipeline constructs a pipeline with the provided decoders and limits.
func NewPipeline(decoders []Decoder, limits Limits) *Pipeline {
	return &Pipeline{decoders: decoders, limits: limits}
}

// Default returns a pipeline carrying the standard non-image decoders.
func Default() *Pipeline {
	return NewPipeline([]Decoder{
		NewFlateDecoder(),
		NewASCIIHexDecoder(),
		NewASCII85Decoder(),
		NewRunLengthDecoder(),
	}, Limits{MaxDecompressedSize: 1 << 30})
}

// Decode runs the named filters over input in order. Filter i receives
// params[i] when present.
func (p *Pipeline) Decode(ctx context.Context, input []byte, names []string, params []*object.Dict) ([]byte, error) {
	data := input
	for i, name := range names {
		dec := p.find(name)
		if dec == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		var param *object.Dict
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, err
		}
		if p.limits.MaxDecompressedSize > 0 && int64(len(out)) > p.limits.MaxDecompressedSize {
			return nil, errors.New("filters: decompressed size exceeds limit")
		}
		data = out
	}
	return data, nil
}

func (p *Pipeline) find(name string) Decoder {
	for _, d := range p.decoders {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// ForStream extracts the filter chain and decode parameters declared by a
// stream dictionary, resolving indirect values through doc.
func ForStream(doc *object.Document, dict *object.Dict) (names []string, params []*object.Dict) {
	fObj, ok := dict.Get("Filter")
	if !ok {
		return nil, nil
	}
	switch v := doc.Resolve(fObj).(type) {
	case object.Name:
		names = []string{string(v)}
	case *object.Array:
		for _, it := range v.Items {
			if n, ok := doc.Resolve(it).(object.Name); ok {
				names = append(names, string(n))
			}
		}
	}
	if dp, ok := dict.Get("DecodeParms"); ok {
		switch v := doc.Resolve(dp).(type) {
		case *object.Dict:
			params = append(params, v)
		case *object.Array:
			for _, it := range v.Items {
				d, _ := doc.Dict(it)
				params = append(params, d) // nil for null placeholders
			}
		}
	}
	return names, params
}

type flateDecoder struct{}

// NewFlateDecoder returns the FlateDecode decoder, including PNG/TIFF
// predictor reversal per the DecodeParms dictionary.
func NewFlateDecoder() Decoder { return flateDecoder{} }

func (flateDecoder) Name() string { return "FlateDecode" }

func (flateDecoder) Decode(ctx context.Context, in []byte, params *object.Dict) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	return applyPredictor(out.Bytes(), params)
}

// FlateEncode compresses data at the given zlib level (zlib.DefaultCompression
// when level is 0).
func FlateEncode(data []byte, level int) ([]byte, error) {
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type asciiHexDecoder struct{}

// NewASCIIHexDecoder returns the ASCIIHexDecode decoder.
func NewASCIIHexDecoder() Decoder { return asciiHexDecoder{} }

func (asciiHexDecoder) Name() string { return "ASCIIHexDecode" }

func (asciiHexDecoder) Decode(ctx context.Context, in []byte, params *object.Dict) ([]byte, error) {
	trimmed := make([]byte, 0, len(in))
	for _, c := range in {
		switch {
		case c == '>':
			goto done
		case c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20:
		default:
			trimmed = append(trimmed, c)
		}
	}
done:
	if len(trimmed)%2 == 1 {
		trimmed = append(trimmed, '0')
	}
	out := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(out, trimmed)
	if err != nil {
		return nil, fmt.Errorf("filters: asciihex: %w", err)
	}
	return out[:n], nil
}

type ascii85Decoder struct{}

// NewASCII85Decoder returns the ASCII85Decode decoder.
func NewASCII85Decoder() Decoder { return ascii85Decoder{} }

func (ascii85Decoder) Name() string { return "ASCII85Decode" }

func (ascii85Decoder) Decode(ctx context.Context, in []byte, params *object.Dict) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	if bytes.HasPrefix(trimmed, []byte("<~")) {
		trimmed = trimmed[2:]
	}
	if i := bytes.Index(trimmed, []byte("~>")); i >= 0 {
		trimmed = trimmed[:i]
	}
	out := make([]byte, len(trimmed)*4/5+4)
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, fmt.Errorf("filters: ascii85: %w", err)
	}
	return out[:n], nil
}

type runLengthDecoder struct{}

// NewRunLengthDecoder returns the RunLengthDecode decoder.
func NewRunLengthDecoder() Decoder { return runLengthDecoder{} }

func (runLengthDecoder) Name() string { return "RunLengthDecode" }

func (runLengthDecoder) Decode(ctx context.Context, in []byte, params *object.Dict) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(in); {
		l := in[i]
		i++
		switch {
		case l == 128:
			return out.Bytes(), nil
		case l < 128:
			n := int(l) + 1
			if i+n > len(in) {
				return nil, errors.New("filters: runlength: truncated literal run")
			}
			out.Write(in[i : i+n])
			i += n
		default:
			if i >= len(in) {
				return nil, errors.New("filters: runlength: truncated repeat run")
			}
			n := 257 - int(l)
			out.Write(bytes.Repeat(in[i:i+1], n))
			i++
		}
	}
	return out.Bytes(), nil
}
