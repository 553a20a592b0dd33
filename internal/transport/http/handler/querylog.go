package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragserver/internal/repository"
	"ragserver/internal/transport/http/response"
)

// QueryLogHandler exposes the analytics log written by the worker. Only
// registered when a durable store is configured.
type QueryLogHandler struct {
	repo *repository.QueryLogRepository
}

func NewQueryLogHandler(repo *repository.QueryLogRepository) *QueryLogHandler {
	return &QueryLogHandler{repo: repo}
}

func (h *QueryLogHandler) ListRecent(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := h.repo.ListRecent(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
}
