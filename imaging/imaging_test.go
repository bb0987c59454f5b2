package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestTierByName(t *testing.T) {
	tests := []struct {
		name        string
		wantQuality int
		wantScale   float64
	}{
		{"low", 30, 0.5},
		{"medium", 60, 0.75},
		{"high", 85, 1.0},
		{"ultra", 60, 0.75},
		{"", 60, 0.75},
	}
	for _, tt := range tests {
		tier := TierByName(tt.name)
		if tier.Quality != tt.wantQuality || tier.Scale != tt.wantScale {
			t.Errorf("TierByName(%q) = %+v", tt.name, tier)
		}
	}
}

func TestColorModel(t *testing.T) {
	tests := []struct {
		name  string
		model ColorModel
		comps int
	}{
		{"DeviceGray", ColorGray, 1},
		{"DeviceRGB", ColorRGB, 3},
		{"DeviceCMYK", ColorCMYK, 4},
		{"ICCBased", ColorUnsupported, 0},
		{"Indexed", ColorUnsupported, 0},
	}
	for _, tt := range tests {
		m := ColorModelFromName(tt.name)
		if m != tt.model || m.Components() != tt.comps {
			t.Errorf("ColorModelFromName(%q) = %v (%d components)", tt.name, m, m.Components())
		}
	}
}

func TestResizeFloorsPerAxis(t *testing.T) {
	tests := []struct {
		w, h  int
		scale float64
		outW  int
		outH  int
	}{
		{800, 600, 0.5, 400, 300},
		{801, 601, 0.5, 400, 300},
		{99, 33, 0.75, 74, 24},
		{3, 3, 0.1, 1, 1}, // clamped to one pixel
	}
	for _, tt := range tests {
		img := image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h))
		out := Resize(img, tt.scale)
		b := out.Bounds()
		if b.Dx() != tt.outW || b.Dy() != tt.outH {
			t.Errorf("Resize(%dx%d, %v) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.scale, b.Dx(), b.Dy(), tt.outW, tt.outH)
		}
	}
}

func TestResizeIdentityAtFullScale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if out := Resize(img, 1.0); out != image.Image(img) {
		t.Fatal("scale 1.0 should return the input unchanged")
	}
}

func TestDecodeRawLengths(t *testing.T) {
	if _, err := DecodeRaw(make([]byte, 10*10*3), 10, 10, ColorRGB); err != nil {
		t.Fatalf("exact RGB buffer rejected: %v", err)
	}
	if _, err := DecodeRaw(make([]byte, 10*10*3-1), 10, 10, ColorRGB); err == nil {
		t.Fatal("short buffer accepted")
	}
	if _, err := DecodeRaw(make([]byte, 100), 10, 10, ColorGray); err != nil {
		t.Fatalf("gray buffer rejected: %v", err)
	}
	if _, err := DecodeRaw(make([]byte, 100), 10, 10, ColorUnsupported); err == nil {
		t.Fatal("unsupported model accepted")
	}
}

func TestEncodeJPEGKeepsGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	data, err := EncodeJPEG(img, 80)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Fatalf("gray input re-encoded as %T", decoded)
	}
}

func TestEncodeJPEGRGBPromotesGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	data, err := EncodeJPEGRGB(img, 80)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded.(*image.Gray); ok {
		t.Fatal("EncodeJPEGRGB produced a single-channel JPEG")
	}
}

func TestFlattenCompositesOverWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	// Fully transparent pixels must come out white, not black.
	out := flatten(img)
	if c := out.NRGBAAt(0, 0); c.R != 0xFF || c.G != 0xFF || c.B != 0xFF || c.A != 0xFF {
		t.Fatalf("transparent pixel flattened to %+v", c)
	}
}

func TestCMYKToRGB(t *testing.T) {
	src := image.NewCMYK(image.Rect(0, 0, 1, 1))
	src.SetCMYK(0, 0, color.CMYK{C: 0, M: 0, Y: 0, K: 0})
	out := cmykToRGB(src)
	if c := out.NRGBAAt(0, 0); c.R != 0xFF || c.G != 0xFF || c.B != 0xFF {
		t.Fatalf("zero ink should be white, got %+v", c)
	}
}

func TestResizeImagePercent(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 100, 50))); err != nil {
		t.Fatal(err)
	}
	out, format, err := ResizeImage(buf.Bytes(), ResizeOptions{Percent: 50})
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Fatalf("format = %q", format)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Fatalf("resized to %dx%d, want 50x25", b.Dx(), b.Dy())
	}
}

func TestResizeImageWidthKeepsAspect(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatal(err)
	}
	out, _, err := ResizeImage(buf.Bytes(), ResizeOptions{Width: 100})
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("resized to %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestCompressImageConvertsToJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 20, 20))); err != nil {
		t.Fatal(err)
	}
	out, format, err := CompressImage(buf.Bytes(), 70)
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %q, want jpeg", format)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
}
