// Package compress implements the document-level image recompression
// engine: it walks every page, recompresses eligible raster images at a
// quality tier, drops unreferenced objects and saves with compacted
// output. A malformed image never fails the whole document; only open and
// save errors reach the caller.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"pdfsqueeze/document"
	"pdfsqueeze/filters"
	"pdfsqueeze/imaging"
	"pdfsqueeze/observability"
)

// Stats summarizes one compression call.
type Stats struct {
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// Action records what happened to one candidate image.
type Action string

const (
	ActionRecompressed Action = "recompressed"
	ActionSkipped      Action = "skipped"
)

// ImageResult is the per-image outcome. Reason is set for skips.
type ImageResult struct {
	Page        int
	Resource    string
	Action      Action
	Reason      string
	BytesBefore int
	BytesAfter  int
}

// Report aggregates per-image outcomes for callers wanting diagnostics.
// The plain Compress entry points discard it.
type Report struct {
	Images         []ImageResult
	ObjectsRemoved int
}

// Recompressed counts the images that were rewritten.
func (r *Report) Recompressed() int {
	n := 0
	for _, img := range r.Images {
		if img.Action == ActionRecompressed {
			n++
		}
	}
	return n
}

// Compressor drives recompression over whole documents.
type Compressor struct {
	pipeline *filters.Pipeline
	log      observability.Logger
}

// New returns a compressor logging through log.
func New(log observability.Logger) *Compressor {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Compressor{pipeline: filters.Default(), log: log}
}

// Compress recompresses the document in data at the named tier and writes
// the result to w.
func (c *Compressor) Compress(ctx context.Context, data []byte, w io.Writer, tierName string) (Stats, error) {
	stats, _, err := c.CompressWithReport(ctx, data, w, tierName)
	return stats, err
}

// CompressWithReport is Compress plus the per-image outcome report.
func (c *Compressor) CompressWithReport(ctx context.Context, data []byte, w io.Writer, tierName string) (Stats, *Report, error) {
	tier := imaging.TierByName(tierName)
	doc, err := document.Open(ctx, data)
	if err != nil {
		return Stats{}, nil, fmt.Errorf("compress: open document: %w", err)
	}

	report := &Report{}
	c.compressImages(ctx, doc, tier, report)
	report.ObjectsRemoved = doc.RemoveUnreferenced()

	var buf bytes.Buffer
	if err := doc.Save(&buf, document.SaveOptions{CompressStreams: true, ObjectStreams: true}); err != nil {
		return Stats{}, nil, fmt.Errorf("compress: save document: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return Stats{}, nil, fmt.Errorf("compress: save document: %w", err)
	}

	stats := Stats{
		OriginalSize:     int64(len(data)),
		CompressedSize:   int64(buf.Len()),
		ReductionPercent: reductionPercent(int64(len(data)), int64(buf.Len())),
	}
	c.log.Info("document compressed",
		observability.F("tier", tier.Name),
		observability.F("original_size", stats.OriginalSize),
		observability.F("compressed_size", stats.CompressedSize),
		observability.F("reduction_percent", stats.ReductionPercent),
		observability.F("images_recompressed", report.Recompressed()),
		observability.F("objects_removed", report.ObjectsRemoved))
	return stats, report, nil
}

// CompressFile reads inPath, compresses at the named tier and writes the
// result to outPath.
func (c *Compressor) CompressFile(ctx context.Context, inPath, outPath, tierName string) (Stats, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("compress: open document: %w", err)
	}
	var buf bytes.Buffer
	stats, err := c.Compress(ctx, data, &buf, tierName)
	if err != nil {
		return Stats{}, err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return Stats{}, fmt.Errorf("compress: save document: %w", err)
	}
	return stats, nil
}

func (c *Compressor) compressImages(ctx context.Context, doc *document.Document, tier imaging.Tier, report *Report) {
	pages, err := doc.Pages()
	if err != nil {
		c.log.Warn("page tree walk failed, compacting only", observability.F("error", err.Error()))
		return
	}
	for i, page := range pages {
		candidates, err := c.scanPage(doc, page)
		if err != nil {
			c.log.Warn("page scan failed",
				observability.F("page", i+1),
				observability.F("error", err.Error()))
			continue
		}
		for _, cand := range candidates {
			res := c.processImage(ctx, doc, cand, tier)
			res.Page = i + 1
			report.Images = append(report.Images, res)
			if res.Action == ActionSkipped {
				c.log.Debug("image skipped",
					observability.F("page", res.Page),
					observability.F("resource", res.Resource),
					observability.F("reason", res.Reason))
			}
		}
	}
}

// processImage classifies, transcodes and rewrites one candidate. Every
// failure is absorbed into a skip result; the stream is only mutated after
// a fully successful re-encode.
func (c *Compressor) processImage(ctx context.Context, doc *document.Document, cand candidate, tier imaging.Tier) ImageResult {
	res := ImageResult{Resource: cand.name, Action: ActionSkipped, BytesBefore: len(cand.stream.Data)}

	cls := c.classify(ctx, doc, cand)
	if cls.path == pathSkip {
		res.Reason = cls.reason
		return res
	}

	img, err := cls.decode()
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	img = imaging.Resize(img, tier.Scale)

	var encoded []byte
	if cls.path == pathRaw {
		encoded, err = imaging.EncodeJPEGRGB(img, tier.Quality)
	} else {
		encoded, err = imaging.EncodeJPEG(img, tier.Quality)
	}
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	b := img.Bounds()
	rewrite(cand.stream, encoded, b.Dx(), b.Dy(), cls.path == pathRaw)
	res.Action = ActionRecompressed
	res.BytesAfter = len(encoded)
	return res
}

// reductionPercent computes the size reduction rounded to one decimal,
// returning 0 for empty input.
func reductionPercent(original, compressed int64) float64 {
	if original == 0 {
		return 0
	}
	ratio := (1 - float64(compressed)/float64(original)) * 100
	return math.Round(ratio*10) / 10
}
