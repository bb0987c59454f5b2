package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ResizeOptions selects the target geometry for a standalone image file.
// Exactly one of Percent or Width/Height should be set; when only one of
// Width and Height is given the other follows the source aspect ratio.
type ResizeOptions struct {
	Width   int
	Height  int
	Percent float64
}

// ResizeImage resizes a PNG or JPEG file and returns the re-encoded bytes
// together with the output format name.
func ResizeImage(data []byte, opts ResizeOptions) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	b := img.Bounds()
	w, h := targetSize(b.Dx(), b.Dy(), opts)
	if w <= 0 || h <= 0 {
		return nil, "", errors.New("imaging: target size is empty")
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	out, err := encodeAs(dst, format, 90)
	return out, format, err
}

// CompressImage re-encodes an image file at the given JPEG quality. PNG
// input is converted to JPEG since PNG has no quality knob.
func CompressImage(data []byte, quality int) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	out, err := EncodeJPEG(img, quality)
	return out, "jpeg", err
}

func targetSize(srcW, srcH int, opts ResizeOptions) (int, int) {
	if opts.Percent > 0 {
		w := int(math.Floor(float64(srcW) * opts.Percent / 100))
		h := int(math.Floor(float64(srcH) * opts.Percent / 100))
		return w, h
	}
	w, h := opts.Width, opts.Height
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0:
		return w, int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
	case h > 0:
		return int(math.Round(float64(srcW) * float64(h) / float64(srcH))), h
	}
	return srcW, srcH
}

func encodeAs(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
