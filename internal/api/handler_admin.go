package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"barkpark-backend/internal/identity"
)

type setAdminRequest struct {
	UID       string `json:"uid" binding:"required"`
	MakeAdmin *bool  `json:"makeAdmin" binding:"required"`
}

// PostSetAdmin promotes or demotes an owner by uid. Admin-only; the
// RequireAdmin middleware enforces the claim before this runs.
func (h *Handler) PostSetAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid-argument",
			"message": "Provide { uid: string, makeAdmin: boolean }",
		})
		return
	}

	res, err := h.identity.SetAdmin(c.Request.Context(), req.UID, *req.MakeAdmin)
	if err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type setAdminByEmailRequest struct {
	Email     string `json:"email" binding:"required"`
	MakeAdmin *bool  `json:"makeAdmin" binding:"required"`
}

// PostSetAdminByEmail is the email-keyed variant; the resolved uid comes
// back in the response for logging.
func (h *Handler) PostSetAdminByEmail(c *gin.Context) {
	var req setAdminByEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid-argument",
			"message": "Provide { email: string, makeAdmin: boolean }",
		})
		return
	}

	res, err := h.identity.SetAdminByEmail(c.Request.Context(), req.Email, *req.MakeAdmin)
	if err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) adminError(c *gin.Context, err error) {
	if errors.Is(err, identity.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
