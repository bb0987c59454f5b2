// Package api exposes the document tools over HTTP: compression, split
// and merge, overlays, OCR, office conversion and the standalone image
// operations, plus a persisted compression history.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pdfsqueeze/compress"
	"pdfsqueeze/observability"
	"pdfsqueeze/ocr"
)

// Server holds the wired service dependencies.
type Server struct {
	cfg        Config
	log        observability.Logger
	compressor *compress.Compressor
	history    *HistoryStore
	ocrEngine  ocr.Engine
}

// NewServer wires a server. history and ocrEngine may be nil; their
// endpoints then respond 503.
func NewServer(cfg Config, log observability.Logger, history *HistoryStore, ocrEngine ocr.Engine) *Server {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		compressor: compress.New(log),
		history:    history,
		ocrEngine:  ocrEngine,
	}
}

// requestDir creates a per-request scratch directory. The caller defers
// the returned cleanup.
func (s *Server) requestDir() (string, func(), error) {
	dir := filepath.Join(s.cfg.TempDir, "pdfsqueeze-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}

func (s *Server) maxUploadBytes() int64 { return s.cfg.MaxFileSizeMB << 20 }

// formFileBytes reads one uploaded file into memory, enforcing the size
// limit.
func (s *Server) formFileBytes(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing file field %q", field)
	}
	data, err := s.readFileHeader(fh)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(fh.Filename), nil
}

func (s *Server) readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > s.maxUploadBytes() {
		return nil, fmt.Errorf("file exceeds the %d MB limit", s.cfg.MaxFileSizeMB)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes()+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxUploadBytes() {
		return nil, fmt.Errorf("file exceeds the %d MB limit", s.cfg.MaxFileSizeMB)
	}
	return data, nil
}

// saveUpload writes one uploaded file into dir and returns its path.
func (s *Server) saveUpload(c *gin.Context, field, dir string) (string, string, error) {
	data, name, err := s.formFileBytes(c, field)
	if err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", err
	}
	return path, name, nil
}

func respondPDF(c *gin.Context, data []byte, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) respondError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		s.log.Warn(msg,
			observability.F("path", c.FullPath()),
			observability.F("error", err.Error()))
		c.JSON(status, gin.H{"error": msg, "detail": err.Error()})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

// outputName derives the response filename from the upload.
func outputName(original, suffix string) string {
	ext := filepath.Ext(original)
	return original[:len(original)-len(ext)] + suffix
}
