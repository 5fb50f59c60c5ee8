package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"barkpark-backend/internal/model"
)

// ParkResponse represents the API response for a single park.
type ParkResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}

// GetParks handles the GET /api/parks request.
func (h *Handler) GetParks(c *gin.Context) {
	parks, err := h.store.ListParks(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve parks"})
		return
	}

	responses := make([]ParkResponse, 0, len(parks))
	for _, p := range parks {
		responses = append(responses, ParkResponse{
			ID:        p.ID,
			Name:      p.Name,
			UserCount: p.UserCount,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// visitResponse is the flattened structure for a single ledger entry.
type visitResponse struct {
	ID              string     `json:"id"`
	ParkID          string     `json:"parkId"`
	OwnerID         string     `json:"ownerId"`
	CheckInAt       time.Time  `json:"checkInAt"`
	CheckOutAt      *time.Time `json:"checkOutAt"`
	DurationMinutes *int       `json:"durationMinutes"`
	Day             string     `json:"day"`
}

// GetParkVisits handles GET /api/parks/{park_id}/visits?day=YYYY-MM-DD.
func (h *Handler) GetParkVisits(c *gin.Context) {
	parkID := c.Param("park_id")
	day := c.Query("day")
	if day != "" {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'day' format. Use YYYY-MM-DD."})
			return
		}
	}

	visits, err := h.store.ListVisits(c.Request.Context(), parkID, day)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visits"})
		return
	}

	responses := make([]visitResponse, 0, len(visits))
	for _, v := range visits {
		responses = append(responses, toVisitResponse(v))
	}
	c.JSON(http.StatusOK, responses)
}

func toVisitResponse(v model.Visit) visitResponse {
	return visitResponse{
		ID:              v.ID,
		ParkID:          v.ParkID,
		OwnerID:         v.OwnerID,
		CheckInAt:       v.CheckInAt,
		CheckOutAt:      v.CheckOutAt,
		DurationMinutes: v.DurationMinutes,
		Day:             v.Day,
	}
}
