// Package ocr defines the text recognition surface and the PDF text
// extraction flow built on top of it. Concrete engines live in
// subpackages; ocr/tesseract wraps the system tesseract installation.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pdfsqueeze/rasterize"
)

// Input is one image handed to an engine.
type Input struct {
	ID        string
	Image     []byte
	Languages []string
	DPI       int
}

// Result is the recognized text for one input.
type Result struct {
	InputID   string
	PlainText string
}

// Engine recognizes text in a single image.
type Engine interface {
	Recognize(ctx context.Context, in Input) (Result, error)
}

// ExtractText recognizes the text of a single image.
func ExtractText(ctx context.Context, eng Engine, image []byte, languages []string) (string, error) {
	res, err := eng.Recognize(ctx, Input{ID: uuid.NewString(), Image: image, Languages: languages})
	if err != nil {
		return "", err
	}
	return res.PlainText, nil
}

// ExtractPDFText rasterizes every page of the PDF at pdfPath and
// recognizes each one. Page texts are labelled with a page marker and
// joined with blank lines; blank pages are dropped.
func ExtractPDFText(ctx context.Context, eng Engine, pdfPath string, languages []string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdfsqueeze-ocr-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	pagePaths, err := rasterize.PDFToImages(ctx, pdfPath, tmpDir, rasterize.Options{DPI: 300})
	if err != nil {
		if errors.Is(err, rasterize.ErrUnavailable) {
			return "", fmt.Errorf("ocr: pdf input needs a page renderer: %w", err)
		}
		return "", err
	}

	var sections []string
	for i, p := range pagePaths {
		img, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		res, err := eng.Recognize(ctx, Input{ID: filepath.Base(p), Image: img, Languages: languages})
		if err != nil {
			return "", fmt.Errorf("ocr: page %d: %w", i+1, err)
		}
		text := strings.TrimSpace(res.PlainText)
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("--- Page %d ---\n%s", i+1, text))
	}
	return strings.Join(sections, "\n\n"), nil
}
