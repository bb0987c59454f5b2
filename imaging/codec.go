package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	xdraw "golang.org/x/image/draw"
)

// DecodeDCT decodes a JPEG payload.
func DecodeDCT(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode jpeg: %w", err)
	}
	return img, nil
}

// DecodeRaw reinterprets an uncompressed 8-bit sample buffer as an image.
// The buffer length must be exactly width*height*components.
func DecodeRaw(data []byte, width, height int, model ColorModel) (image.Image, error) {
	comps := model.Components()
	if comps == 0 {
		return nil, fmt.Errorf("imaging: unsupported color model")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid dimensions %dx%d", width, height)
	}
	want := width * height * comps
	if len(data) != want {
		return nil, fmt.Errorf("imaging: raw buffer is %d bytes, want %d", len(data), want)
	}
	rect := image.Rect(0, 0, width, height)
	switch model {
	case ColorGray:
		return &image.Gray{Pix: data, Stride: width, Rect: rect}, nil
	case ColorCMYK:
		return &image.CMYK{Pix: data, Stride: width * 4, Rect: rect}, nil
	case ColorRGB:
		out := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(data); i, j = i+3, j+4 {
			out.Pix[j] = data[i]
			out.Pix[j+1] = data[i+1]
			out.Pix[j+2] = data[i+2]
			out.Pix[j+3] = 0xFF
		}
		return out, nil
	}
	return nil, fmt.Errorf("imaging: unsupported color model")
}

// Resize downscales img by scale using Catmull-Rom resampling. Target
// dimensions are floored per axis and clamped to at least one pixel. A
// scale of 1 or more returns img unchanged.
func Resize(img image.Image, scale float64) image.Image {
	if scale >= 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Floor(float64(b.Dx()) * scale))
	h := int(math.Floor(float64(b.Dy()) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// EncodeJPEG re-encodes img as a baseline JPEG at the given quality.
// Transparency is flattened against white and CMYK is converted to RGB;
// grayscale input stays single-channel.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	img = normalize(img)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEGRGB re-encodes img as a 3-component JPEG regardless of the
// source model; grayscale input is promoted to RGB.
func EncodeJPEGRGB(img image.Image, quality int) ([]byte, error) {
	switch v := img.(type) {
	case *image.CMYK:
		img = cmykToRGB(v)
	case *image.NRGBA:
	default:
		img = flatten(img)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func normalize(img image.Image) image.Image {
	switch v := img.(type) {
	case *image.Gray, *image.YCbCr:
		return img
	case *image.CMYK:
		return cmykToRGB(v)
	default:
		return flatten(img)
	}
}

// cmykToRGB applies the plain linear conversion, matching the stdlib color
// model; no ICC handling.
func cmykToRGB(src *image.CMYK) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.CMYKAt(x, y)
			r, g, bl := color.CMYKToRGB(c.C, c.M, c.Y, c.K)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = bl
			out.Pix[i+3] = 0xFF
		}
	}
	return out
}

// flatten composites img over a white background, discarding alpha.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i-3] = 0xFF
		out.Pix[i-2] = 0xFF
		out.Pix[i-1] = 0xFF
		out.Pix[i] = 0xFF
	}
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Over)
	return out
}
