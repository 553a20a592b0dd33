package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/transport/http/response"
)

type EvalHandler struct {
	eval *app.EvalService
}

type EvalDocumentRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func NewEvalHandler(eval *app.EvalService) *EvalHandler {
	return &EvalHandler{eval: eval}
}

func (h *EvalHandler) Run(c *gin.Context) {
	report, err := h.eval.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"aggregate": report.Aggregate,
		"results":   report.Results,
	})
}

func (h *EvalHandler) EvalDocument(c *gin.Context) {
	var req EvalDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	report, err := h.eval.EvalDocument(c.Request.Context(), req.Text, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"document_indexed":   report.DocumentIndexed,
		"qa_pairs_generated": report.QAPairsGenerated,
		"aggregate":          report.Aggregate,
		"results":            report.Results,
	})
}
