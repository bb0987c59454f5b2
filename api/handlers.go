package api

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfsqueeze/convert"
	"pdfsqueeze/document"
	"pdfsqueeze/imaging"
	"pdfsqueeze/observability"
	"pdfsqueeze/ocr"
	"pdfsqueeze/overlay"
	"pdfsqueeze/pagerange"
	"pdfsqueeze/rasterize"
)

func (s *Server) handleCompress(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	tier := c.DefaultPostForm("quality", "medium")

	var out bytes.Buffer
	stats, err := s.compressor.Compress(c.Request.Context(), data, &out, tier)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, document.ErrEncrypted) {
			status = http.StatusBadRequest
		}
		s.respondError(c, status, "compression failed", err)
		return
	}

	if s.history != nil {
		rec := &CompressionRecord{
			Filename:         name,
			Tier:             tier,
			OriginalSize:     stats.OriginalSize,
			CompressedSize:   stats.CompressedSize,
			ReductionPercent: stats.ReductionPercent,
		}
		if err := s.history.Record(rec); err != nil {
			s.log.Warn("history insert failed", observability.F("error", err.Error()))
		}
	}

	c.Header("X-Original-Size", strconv.FormatInt(stats.OriginalSize, 10))
	c.Header("X-Compressed-Size", strconv.FormatInt(stats.CompressedSize, 10))
	c.Header("X-Reduction-Percent", fmt.Sprintf("%.1f", stats.ReductionPercent))
	respondPDF(c, out.Bytes(), outputName(name, "_compressed.pdf"))
}

func (s *Server) handleSplit(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	doc, err := document.Open(c.Request.Context(), data)
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "cannot open document", err)
		return
	}
	total, err := doc.PageCount()
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "cannot read pages", err)
		return
	}
	indices, err := pagerange.Parse(c.DefaultPostForm("pages", "all"), total)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid page range", err)
		return
	}
	if len(indices) == 0 {
		s.respondError(c, http.StatusBadRequest, "page range selects no pages", nil)
		return
	}
	extracted, err := doc.ExtractPages(indices)
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "page extraction failed", err)
		return
	}
	var out bytes.Buffer
	if err := extracted.Save(&out, document.SaveOptions{CompressStreams: true}); err != nil {
		s.respondError(c, http.StatusInternalServerError, "save failed", err)
		return
	}
	respondPDF(c, out.Bytes(), outputName(name, "_split.pdf"))
}

func (s *Server) handleMerge(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	files := form.File["files"]
	if len(files) < 2 {
		s.respondError(c, http.StatusBadRequest, "merge needs at least two files", nil)
		return
	}
	var merged *document.Document
	for _, fh := range files {
		data, err := s.readFileHeader(fh)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, "invalid upload", err)
			return
		}
		doc, err := document.Open(c.Request.Context(), data)
		if err != nil {
			s.respondError(c, http.StatusUnprocessableEntity, fmt.Sprintf("cannot open %s", fh.Filename), err)
			return
		}
		if merged == nil {
			merged = doc
			continue
		}
		if err := merged.Append(doc); err != nil {
			s.respondError(c, http.StatusUnprocessableEntity, fmt.Sprintf("cannot merge %s", fh.Filename), err)
			return
		}
	}
	var out bytes.Buffer
	if err := merged.Save(&out, document.SaveOptions{CompressStreams: true}); err != nil {
		s.respondError(c, http.StatusInternalServerError, "save failed", err)
		return
	}
	respondPDF(c, out.Bytes(), "merged.pdf")
}

func (s *Server) handleWatermark(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	opacity, _ := strconv.ParseFloat(c.DefaultPostForm("opacity", "0.3"), 64)
	wm := overlay.Watermark{Text: c.PostForm("text"), Opacity: opacity}

	doc, err := document.Open(c.Request.Context(), data)
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "cannot open document", err)
		return
	}
	if err := overlay.ApplyWatermark(doc, wm, nil); err != nil {
		s.respondError(c, http.StatusBadRequest, "watermark failed", err)
		return
	}
	var out bytes.Buffer
	if err := doc.Save(&out, document.SaveOptions{CompressStreams: true}); err != nil {
		s.respondError(c, http.StatusInternalServerError, "save failed", err)
		return
	}
	respondPDF(c, out.Bytes(), outputName(name, "_watermarked.pdf"))
}

func (s *Server) handleSign(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	sig := overlay.Signature{
		Text:        c.PostForm("text"),
		Position:    overlay.Position(c.DefaultPostForm("position", string(overlay.BottomRight))),
		IncludeDate: c.DefaultPostForm("include_date", "false") == "true",
	}
	doc, err := document.Open(c.Request.Context(), data)
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "cannot open document", err)
		return
	}
	if err := overlay.ApplySignature(doc, sig, nil); err != nil {
		s.respondError(c, http.StatusBadRequest, "signature failed", err)
		return
	}
	var out bytes.Buffer
	if err := doc.Save(&out, document.SaveOptions{CompressStreams: true}); err != nil {
		s.respondError(c, http.StatusInternalServerError, "save failed", err)
		return
	}
	respondPDF(c, out.Bytes(), outputName(name, "_signed.pdf"))
}

func (s *Server) handleOCR(c *gin.Context) {
	if s.ocrEngine == nil {
		s.respondError(c, http.StatusServiceUnavailable, "ocr engine not configured", nil)
		return
	}
	dir, cleanup, err := s.requestDir()
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, "temp dir", err)
		return
	}
	defer cleanup()

	path, name, err := s.saveUpload(c, "file", dir)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	langs := []string{c.DefaultPostForm("language", "eng")}

	var text string
	if filepath.Ext(name) == ".pdf" {
		text, err = ocr.ExtractPDFText(c.Request.Context(), s.ocrEngine, path, langs)
	} else {
		var img []byte
		img, err = os.ReadFile(path)
		if err == nil {
			text, err = ocr.ExtractText(c.Request.Context(), s.ocrEngine, img, langs)
		}
	}
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "ocr failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": name, "text": text})
}

func (s *Server) handleWordToPDF(c *gin.Context) {
	dir, cleanup, err := s.requestDir()
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, "temp dir", err)
		return
	}
	defer cleanup()

	inPath, name, err := s.saveUpload(c, "file", dir)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	outPath := filepath.Join(dir, "out.pdf")
	if err := convert.WordToPDF(c.Request.Context(), inPath, outPath); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, convert.ErrUnsupportedInput) {
			status = http.StatusBadRequest
		}
		s.respondError(c, status, "conversion failed", err)
		return
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, "read output", err)
		return
	}
	respondPDF(c, data, outputName(name, ".pdf"))
}

func (s *Server) handlePDFToImages(c *gin.Context) {
	dir, cleanup, err := s.requestDir()
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, "temp dir", err)
		return
	}
	defer cleanup()

	inPath, name, err := s.saveUpload(c, "file", dir)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	dpi, _ := strconv.Atoi(c.DefaultPostForm("dpi", "150"))
	opts := rasterize.Options{DPI: dpi, Format: c.DefaultPostForm("format", "png")}

	pagePaths, err := rasterize.PDFToImages(c.Request.Context(), inPath, dir, opts)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, rasterize.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.respondError(c, status, "rendering failed", err)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range pagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "read page image", err)
			return
		}
		w, err := zw.Create(filepath.Base(p))
		if err == nil {
			_, err = w.Write(data)
		}
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "zip output", err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.respondError(c, http.StatusInternalServerError, "zip output", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(name, "_pages.zip")))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) handleResizeImage(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	width, _ := strconv.Atoi(c.PostForm("width"))
	height, _ := strconv.Atoi(c.PostForm("height"))
	percent, _ := strconv.ParseFloat(c.PostForm("percent"), 64)

	out, format, err := imaging.ResizeImage(data, imaging.ResizeOptions{Width: width, Height: height, Percent: percent})
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "resize failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(name, "_resized."+format)))
	c.Data(http.StatusOK, "image/"+format, out)
}

func (s *Server) handleCompressImage(c *gin.Context) {
	data, name, err := s.formFileBytes(c, "file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid upload", err)
		return
	}
	quality, err := strconv.Atoi(c.DefaultPostForm("quality", "75"))
	if err != nil || quality < 1 || quality > 100 {
		s.respondError(c, http.StatusBadRequest, "quality must be 1-100", nil)
		return
	}
	out, format, err := imaging.CompressImage(data, quality)
	if err != nil {
		s.respondError(c, http.StatusUnprocessableEntity, "compression failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(name, "_compressed."+format)))
	c.Data(http.StatusOK, "image/"+format, out)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		s.respondError(c, http.StatusServiceUnavailable, "history store not configured", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := s.history.Recent(limit)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, "history query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
