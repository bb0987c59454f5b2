// Package rasterize renders PDF pages to image files through the poppler
// pdftoppm tool.
package rasterize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

// ErrUnavailable is returned when no renderer binary is installed.
var ErrUnavailable = errors.New("rasterize: pdftoppm not found")

// Options control the rendering.
type Options struct {
	DPI    int    // default 150
	Format string // "png" or "jpeg", default "png"
}

// PDFToImages renders every page of the PDF at pdfPath into outDir and
// returns the generated file paths in page order.
func PDFToImages(ctx context.Context, pdfPath, outDir string, opts Options) ([]string, error) {
	bin, err := exec.LookPath("pdftoppm")
	if err != nil {
		return nil, ErrUnavailable
	}
	if opts.DPI <= 0 {
		opts.DPI = 150
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}
	flag := "-png"
	ext := ".png"
	if format == "jpeg" || format == "jpg" {
		flag = "-jpeg"
		ext = ".jpg"
	}

	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, bin, flag, "-r", strconv.Itoa(opts.DPI), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("rasterize: pdftoppm: %w: %s", err, out)
	}

	matches, err := filepath.Glob(prefix + "-*" + ext)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New("rasterize: renderer produced no pages")
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(matches)
	return matches, nil
}

// Available reports whether a renderer binary is installed.
func Available() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

// CleanupFiles removes the rendered page files, ignoring failures.
func CleanupFiles(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
