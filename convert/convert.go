// Package convert turns office documents into PDFs. A LibreOffice
// installation is used when present; otherwise .docx input is rendered
// through a text-only fallback that maps paragraph styles to heading and
// body formatting.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pdfsqueeze/builder"
	"pdfsqueeze/document"
)

// ErrUnsupportedInput is returned when neither converter can handle the
// input format.
var ErrUnsupportedInput = errors.New("convert: unsupported input format")

var rendererBinaries = []string{"soffice", "libreoffice"}

// WordToPDF converts the document at inPath and writes the PDF to
// outPath.
func WordToPDF(ctx context.Context, inPath, outPath string) error {
	if bin := rendererBinary(); bin != "" {
		if err := renderExternal(ctx, bin, inPath, outPath); err == nil {
			return nil
		}
		// A broken office installation degrades to the fallback rather
		// than failing the request.
	}
	return renderFallback(inPath, outPath)
}

// RendererAvailable reports whether an external office renderer is
// installed.
func RendererAvailable() bool { return rendererBinary() != "" }

func rendererBinary() string {
	for _, name := range rendererBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// renderExternal runs LibreOffice headless; it writes the PDF next to a
// temp copy and moves it into place.
func renderExternal(ctx context.Context, bin, inPath, outPath string) error {
	outDir, err := os.MkdirTemp("", "pdfsqueeze-convert-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, inPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("convert: %s: %w: %s", filepath.Base(bin), err, out)
	}

	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	produced := filepath.Join(outDir, base+".pdf")
	data, err := os.ReadFile(produced)
	if err != nil {
		return fmt.Errorf("convert: renderer produced no output: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}

func renderFallback(inPath, outPath string) error {
	if strings.ToLower(filepath.Ext(inPath)) != ".docx" {
		return ErrUnsupportedInput
	}
	paragraphs, err := readDocx(inPath)
	if err != nil {
		return err
	}
	if len(paragraphs) == 0 {
		paragraphs = []builder.Paragraph{{Text: "(Empty document)"}}
	}
	return builder.Build(paragraphs).SaveFile(outPath, document.SaveOptions{CompressStreams: true})
}
