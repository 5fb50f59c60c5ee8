package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/mw"
)

type putProfileRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	Timezone    string `json:"timezone"`
}

// PutProfile creates or updates the caller's owner profile and publishes the
// write so the public-profile mirror follows.
func (h *Handler) PutProfile(c *gin.Context) {
	ownerID := c.GetString(mw.CtxOwnerID)

	var req putProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
			return
		}
	}

	ctx := c.Request.Context()

	var before *model.Owner
	if prior, found, err := h.store.GetOwner(ctx, ownerID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	} else if found {
		before = &prior
	}

	after := model.Owner{
		ID:          ownerID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Timezone:    req.Timezone,
	}
	if err := h.store.UpsertOwner(ctx, &after); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	h.bus.Publish(event.OwnerWritten{OwnerID: ownerID, Before: before, After: &after})
	c.Status(http.StatusNoContent)
}

// DeleteProfile removes the caller's owner profile; the mirror drops the
// public projection in response.
func (h *Handler) DeleteProfile(c *gin.Context) {
	ownerID := c.GetString(mw.CtxOwnerID)

	prior, found, err := h.store.DeleteOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete profile"})
		return
	}
	if found {
		h.bus.Publish(event.OwnerWritten{OwnerID: ownerID, Before: &prior, After: nil})
	}

	c.Status(http.StatusNoContent)
}
