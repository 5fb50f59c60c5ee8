package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"barkpark-backend/config"
	"barkpark-backend/internal/identity"
	"barkpark-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, idSvc *identity.Service, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	auth := mw.Auth(idSvc)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/parks", caching, h.GetParks)
		api.GET("/parks/:park_id/visits", h.GetParkVisits)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(auth)
		{
			authed.POST("/parks/:park_id/checkin", h.PostCheckIn)
			authed.POST("/parks/:park_id/checkout", h.PostCheckOut)
			authed.POST("/parks/:park_id/chat", h.PostChatMessage)

			authed.PUT("/profile", h.PutProfile)
			authed.DELETE("/profile", h.DeleteProfile)

			authed.GET("/subscriptions", h.GetSubscription)
			authed.PUT("/subscriptions", h.PutSubscription)
			authed.DELETE("/subscriptions", h.DeleteSubscription)

			admin := authed.Group("/admin")
			admin.Use(mw.RequireAdmin())
			{
				admin.POST("/set_admin", h.PostSetAdmin)
				admin.POST("/set_admin_by_email", h.PostSetAdminByEmail)
			}
		}
	}

	return r
}
