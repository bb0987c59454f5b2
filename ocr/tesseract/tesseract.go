// Package tesseract implements ocr.Engine over the system tesseract
// installation via gosseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"pdfsqueeze/ocr"
)

// Engine recognizes text with tesseract. The zero value is ready to use.
type Engine struct {
	// TessdataPrefix overrides the trained-data directory when set.
	TessdataPrefix string
}

// New returns an engine with default settings.
func New() *Engine { return &Engine{} }

// Recognize runs tesseract over one image. Languages defaults to English.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return ocr.Result{}, fmt.Errorf("tesseract: tessdata prefix: %w", err)
		}
	}
	langs := in.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: set language: %w", err)
	}
	if err := client.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: recognize: %w", err)
	}
	return ocr.Result{InputID: in.ID, PlainText: text}, nil
}
