package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/store"
)

type HealthHandler struct {
	index         *app.IndexService
	conversations store.ConversationStore
}

type healthResponse struct {
	Status             string            `json:"status"`
	IndexStats         *store.IndexStats `json:"index_stats"`
	SupabaseConfigured bool              `json:"supabase_configured"`
}

func NewHealthHandler(index *app.IndexService, conversations store.ConversationStore) *HealthHandler {
	return &HealthHandler{index: index, conversations: conversations}
}

func (h *HealthHandler) Check(c *gin.Context) {
	stats, err := h.index.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, healthResponse{
			Status:             fmt.Sprintf("unhealthy: %v", err),
			SupabaseConfigured: h.conversations.Durable(),
		})
		return
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:             "healthy",
		IndexStats:         stats,
		SupabaseConfigured: h.conversations.Durable(),
	})
}
