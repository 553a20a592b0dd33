package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/transport/http/response"
)

type QueryHandler struct {
	query *app.QueryService
}

type QueryRequest struct {
	Query string `json:"query"`
}

func NewQueryHandler(query *app.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.query.Query(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
