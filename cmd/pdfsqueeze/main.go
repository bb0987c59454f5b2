// pdfsqueeze is the command line front end for the document tools.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pdfsqueeze/compress"
	"pdfsqueeze/convert"
	"pdfsqueeze/document"
	"pdfsqueeze/observability"
	"pdfsqueeze/ocr"
	"pdfsqueeze/ocr/tesseract"
	"pdfsqueeze/overlay"
	"pdfsqueeze/pagerange"
)

const usage = `usage: pdfsqueeze <command> [flags]

commands:
  compress     recompress a PDF's images at a quality tier
  split        extract a page range into a new PDF
  merge        concatenate PDFs
  watermark    stamp a text watermark onto every page
  ocr          extract text from a PDF or image
  word-to-pdf  convert an office document to PDF
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "compress":
		err = runCompress(ctx, os.Args[2:])
	case "split":
		err = runSplit(ctx, os.Args[2:])
	case "merge":
		err = runMerge(ctx, os.Args[2:])
	case "watermark":
		err = runWatermark(ctx, os.Args[2:])
	case "ocr":
		err = runOCR(ctx, os.Args[2:])
	case "word-to-pdf":
		err = runWordToPDF(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdfsqueeze:", err)
		os.Exit(1)
	}
}

func runCompress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	tier := fs.String("quality", "medium", "quality tier: low, medium or high")
	out := fs.String("o", "", "output path (default <input>_compressed.pdf)")
	verbose := fs.Bool("v", false, "log per-image decisions")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("compress needs exactly one input file")
	}
	in := fs.Arg(0)
	if *out == "" {
		*out = stripExt(in) + "_compressed.pdf"
	}

	log := observability.NewNopLogger()
	if *verbose {
		log = observability.NewLogger(slog.LevelDebug)
	}
	stats, err := compress.New(log).CompressFile(ctx, in, *out, *tier)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d bytes (%.1f%% reduction)\n", *out, stats.OriginalSize, stats.CompressedSize, stats.ReductionPercent)
	return nil
}

func runSplit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	pages := fs.String("pages", "all", `page selection, e.g. "1,3-5"`)
	out := fs.String("o", "", "output path (default <input>_split.pdf)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("split needs exactly one input file")
	}
	in := fs.Arg(0)
	if *out == "" {
		*out = stripExt(in) + "_split.pdf"
	}

	doc, err := document.OpenFile(ctx, in)
	if err != nil {
		return err
	}
	total, err := doc.PageCount()
	if err != nil {
		return err
	}
	indices, err := pagerange.Parse(*pages, total)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		return fmt.Errorf("%q selects no pages of %d", *pages, total)
	}
	extracted, err := doc.ExtractPages(indices)
	if err != nil {
		return err
	}
	return extracted.SaveFile(*out, document.SaveOptions{CompressStreams: true})
}

func runMerge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("o", "merged.pdf", "output path")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("merge needs at least two input files")
	}

	var merged *document.Document
	for _, path := range fs.Args() {
		doc, err := document.OpenFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if merged == nil {
			merged = doc
			continue
		}
		if err := merged.Append(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return merged.SaveFile(*out, document.SaveOptions{CompressStreams: true})
}

func runWatermark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watermark", flag.ExitOnError)
	text := fs.String("text", "", "watermark text")
	opacity := fs.Float64("opacity", 0.3, "watermark opacity")
	out := fs.String("o", "", "output path (default <input>_watermarked.pdf)")
	fs.Parse(args)
	if fs.NArg() != 1 || *text == "" {
		return fmt.Errorf("watermark needs -text and exactly one input file")
	}
	in := fs.Arg(0)
	if *out == "" {
		*out = stripExt(in) + "_watermarked.pdf"
	}

	doc, err := document.OpenFile(ctx, in)
	if err != nil {
		return err
	}
	if err := overlay.ApplyWatermark(doc, overlay.Watermark{Text: *text, Opacity: *opacity}, nil); err != nil {
		return err
	}
	return doc.SaveFile(*out, document.SaveOptions{CompressStreams: true})
}

func runOCR(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)
	lang := fs.String("lang", "eng", "tesseract language code")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("ocr needs exactly one input file")
	}
	in := fs.Arg(0)

	engine := tesseract.New()
	var text string
	var err error
	if strings.EqualFold(filepath.Ext(in), ".pdf") {
		text, err = ocr.ExtractPDFText(ctx, engine, in, []string{*lang})
	} else {
		var img []byte
		img, err = os.ReadFile(in)
		if err == nil {
			text, err = ocr.ExtractText(ctx, engine, img, []string{*lang})
		}
	}
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runWordToPDF(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("word-to-pdf", flag.ExitOnError)
	out := fs.String("o", "", "output path (default <input>.pdf)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("word-to-pdf needs exactly one input file")
	}
	in := fs.Arg(0)
	if *out == "" {
		*out = stripExt(in) + ".pdf"
	}
	return convert.WordToPDF(ctx, in, *out)
}

func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
