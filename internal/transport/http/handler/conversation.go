package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragserver/internal/app"
	"ragserver/internal/transport/http/response"
)

const conversationListLimit = 50

type ConversationHandler struct {
	conversations *app.ConversationService
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type UpdateConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

type SendMessageRequest struct {
	Query string `json:"query"`
}

func NewConversationHandler(conversations *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	conversation, err := h.conversations.Create(c.Request.Context(), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversation": conversation})
}

func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.conversations.List(c.Request.Context(), conversationListLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": conversations})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conversation, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversation": conversation})
}

func (h *ConversationHandler) UpdateTitle(c *gin.Context) {
	var req UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.conversations.UpdateTitle(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.conversations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendMessage runs one turn. When the answer was generated but the pair
// could not be saved, the generated turn is returned alongside the error so
// the caller does not pay for a second generation.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	turn, err := h.conversations.SendMessage(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		var notSaved *app.TurnNotSavedError
		if errors.As(err, &notSaved) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"detail":            notSaved.Error(),
				"user_message":      notSaved.Result.UserMessage,
				"assistant_message": notSaved.Result.AssistantMessage,
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, turn)
}
