package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/pkg/pdfextract"
	"ragserver/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type IndexHandler struct {
	index *app.IndexService
}

type IndexRequest struct {
	Text   string `json:"text"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

type IndexResponse struct {
	Success       bool   `json:"success"`
	DocID         string `json:"doc_id,omitempty"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Message       string `json:"message"`
}

func NewIndexHandler(index *app.IndexService) *IndexHandler {
	return &IndexHandler{index: index}
}

func (h *IndexHandler) Index(c *gin.Context) {
	var req IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.index.Index(c.Request.Context(), req.Text, req.Title, req.Source)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, IndexResponse{
		Success:       true,
		DocID:         result.DocID,
		ChunksIndexed: result.ChunksIndexed,
		Message:       fmt.Sprintf("Successfully indexed %d chunks", result.ChunksIndexed),
	})
}

// UploadPDF accepts a multipart form with "file" (PDF) and optional "title",
// extracts the text and indexes it like a plain document.
func (h *IndexHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, "file too large (max 10MB)")
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		response.Error(c, http.StatusBadRequest, "PDF contains no extractable text")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	result, err := h.index.Index(c.Request.Context(), text, title, "pdf_upload")
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, IndexResponse{
		Success:       true,
		DocID:         result.DocID,
		ChunksIndexed: result.ChunksIndexed,
		Message:       fmt.Sprintf("Successfully indexed %d chunks", result.ChunksIndexed),
	})
}

func (h *IndexHandler) Stats(c *gin.Context) {
	stats, err := h.index.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
