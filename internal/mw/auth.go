package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"barkpark-backend/internal/identity"
)

// Context keys set by the auth middleware.
const (
	CtxOwnerID = "owner_id"
	CtxIsAdmin = "is_admin"
)

// Auth validates the bearer token and stores the caller's identity on the
// request context.
func Auth(svc *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := svc.ParseToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or revoked token"})
			return
		}

		c.Set(CtxOwnerID, claims.Subject)
		c.Set(CtxIsAdmin, claims.Admin)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin claim.
// Runs after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "permission-denied",
				"message": "Only admins can set admin.",
			})
			return
		}
		c.Next()
	}
}
