package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/rag"
	"ragserver/internal/transport/http/response"
)

// writeError maps the error taxonomy onto HTTP statuses. Upstream-service
// failures are 502 so callers can tell them from local faults.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rag.ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, rag.ErrEmbeddingService),
		errors.Is(err, rag.ErrGenerationService):
		response.Error(c, http.StatusBadGateway, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
