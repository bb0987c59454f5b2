package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router builds the service's gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = s.maxUploadBytes()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := r.Group("/api")
	group.POST("/compress", s.handleCompress)
	group.POST("/split", s.handleSplit)
	group.POST("/merge", s.handleMerge)
	group.POST("/watermark", s.handleWatermark)
	group.POST("/sign", s.handleSign)
	group.POST("/ocr", s.handleOCR)
	group.POST("/word-to-pdf", s.handleWordToPDF)
	group.POST("/pdf-to-images", s.handlePDFToImages)
	group.POST("/resize-image", s.handleResizeImage)
	group.POST("/compress-image", s.handleCompressImage)
	group.GET("/history", s.handleHistory)
	return r
}
