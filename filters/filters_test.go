package filters

import (
	"bytes"
	"context"
	stdascii85 "encoding/ascii85"
	"errors"
	"testing"

	"pdfsqueeze/object"
)

func TestFlateRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("pixel data "), 100)
	encoded, err := FlateEncode(plain, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) >= len(plain) {
		t.Fatalf("flate grew repetitive data: %d >= %d", len(encoded), len(plain))
	}
	out, err := Default().Decode(context.Background(), encoded, []string{"FlateDecode"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatal("flate round trip mismatch")
	}
}

func TestFlateWithPNGUpPredictor(t *testing.T) {
	// Two rows of four bytes, each prefixed by the Up filter type.
	// Decoded row 2 is row 1 plus the deltas.
	raw := []byte{
		2, 10, 20, 30, 40,
		2, 1, 1, 1, 1,
	}
	encoded, err := FlateEncode(raw, 0)
	if err != nil {
		t.Fatal(err)
	}
	params := object.NewDict()
	params.Set("Predictor", object.Integer(12))
	params.Set("Colors", object.Integer(1))
	params.Set("BitsPerComponent", object.Integer(8))
	params.Set("Columns", object.Integer(4))

	out, err := Default().Decode(context.Background(), encoded, []string{"FlateDecode"}, []*object.Dict{params})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 20, 30, 40, 11, 21, 31, 41}
	if !bytes.Equal(out, want) {
		t.Fatalf("predictor output = %v, want %v", out, want)
	}
}

func TestTIFFPredictor(t *testing.T) {
	params := object.NewDict()
	params.Set("Predictor", object.Integer(2))
	params.Set("Colors", object.Integer(1))
	params.Set("BitsPerComponent", object.Integer(8))
	params.Set("Columns", object.Integer(4))

	out, err := applyPredictor([]byte{10, 1, 1, 1}, params)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 11, 12, 13}
	if !bytes.Equal(out, want) {
		t.Fatalf("tiff predictor = %v, want %v", out, want)
	}
}

func TestASCIIHex(t *testing.T) {
	out, err := Default().Decode(context.Background(), []byte("48 65 6C 6C 6F>"), []string{"ASCIIHexDecode"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "Hello" {
		t.Fatalf("asciihex = %q", out)
	}
}

func TestASCII85(t *testing.T) {
	plain := []byte("Hello, ascii85 world")
	encoded := make([]byte, stdascii85.MaxEncodedLen(len(plain)))
	n := stdascii85.Encode(encoded, plain)
	in := append([]byte("<~"), encoded[:n]...)
	in = append(in, []byte("~>")...)

	out, err := Default().Decode(context.Background(), in, []string{"ASCII85Decode"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("ascii85 = %q, want %q", out, plain)
	}
}

func TestRunLength(t *testing.T) {
	// 2+1 literal bytes, then 257-254=3 copies of 'x', then EOD.
	in := []byte{2, 'a', 'b', 'c', 254, 'x', 128}
	out, err := Default().Decode(context.Background(), in, []string{"RunLengthDecode"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "abcxxx" {
		t.Fatalf("runlength = %q", out)
	}
}

func TestUnknownFilter(t *testing.T) {
	_, err := Default().Decode(context.Background(), nil, []string{"JPXDecode"}, nil)
	if !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("err = %v, want ErrUnknownFilter", err)
	}
}

func TestForStream(t *testing.T) {
	doc := object.NewDocument()
	nameRef := doc.Add(object.Name("FlateDecode"))

	dict := object.NewDict()
	dict.Set("Filter", object.Reference{To: nameRef})
	names, params := ForStream(doc, dict)
	if len(names) != 1 || names[0] != "FlateDecode" || params != nil {
		t.Fatalf("single filter = %v, %v", names, params)
	}

	arr := object.NewArray(object.Name("ASCII85Decode"), object.Name("FlateDecode"))
	dict.Set("Filter", arr)
	parms := object.NewDict()
	parmArr := object.NewArray(object.Null{}, parms)
	dict.Set("DecodeParms", parmArr)
	names, params = ForStream(doc, dict)
	if len(names) != 2 || names[0] != "ASCII85Decode" || names[1] != "FlateDecode" {
		t.Fatalf("filter chain = %v", names)
	}
	if len(params) != 2 || params[0] != nil || params[1] != parms {
		t.Fatalf("decode parms = %v", params)
	}
}
