package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/mw"
)

type postChatRequest struct {
	Body string `json:"body" binding:"required"`
}

// PostChatMessage handles POST /api/parks/{park_id}/chat. The write triggers
// the friend fan-out through the event bus; delivery failures never surface
// here.
func (h *Handler) PostChatMessage(c *gin.Context) {
	parkID := c.Param("park_id")
	senderID := c.GetString(mw.CtxOwnerID)

	var req postChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := model.ChatMessage{
		ID:        uuid.NewString(),
		ParkID:    parkID,
		SenderID:  senderID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateChatMessage(c.Request.Context(), &msg); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to post message"})
		return
	}

	h.bus.Publish(event.ChatMessageCreated{
		ParkID:    parkID,
		MessageID: msg.ID,
		SenderID:  senderID,
	})

	c.JSON(http.StatusCreated, gin.H{"id": msg.ID})
}
