package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/mw"
)

// PostCheckIn handles POST /api/parks/{park_id}/checkin.
// The caller's identity comes from the token, never from the body.
func (h *Handler) PostCheckIn(c *gin.Context) {
	parkID := c.Param("park_id")
	ownerID := c.GetString(mw.CtxOwnerID)

	_, found, err := h.store.GetPark(c.Request.Context(), parkID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up park"})
		return
	}
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "park not found"})
		return
	}

	at := time.Now().UTC()
	if err := h.presence.CheckIn(c.Request.Context(), parkID, ownerID, at); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"checkedInAt": at})
}

// PostCheckOut handles POST /api/parks/{park_id}/checkout.
// Checking out while not checked in is a successful no-op.
func (h *Handler) PostCheckOut(c *gin.Context) {
	parkID := c.Param("park_id")
	ownerID := c.GetString(mw.CtxOwnerID)

	found, err := h.presence.CheckOut(c.Request.Context(), parkID, ownerID, event.CauseCheckout)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkedOut": found})
}
