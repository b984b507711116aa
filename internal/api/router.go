package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"roombooking-backend/config"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(mw.Recovery(h.log), mw.RequestLogger(h.log), corsMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	responses := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)

	requireUser := mw.Authenticate(h.issuer, h.store)
	requireManager := mw.RequireRole(model.RoleManager)
	requireAdmin := mw.RequireRole(model.RoleAdmin)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", requireUser, h.Me)

		rooms := api.Group("/rooms")
		rooms.GET("", mw.OptionalAuth(h.issuer, h.store), h.GetRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/conflicts", h.GetRoomConflicts)
		rooms.GET("/:id/reservations", h.GetRoomReservations)
		rooms.POST("", requireUser, requireManager, responses.PurgeOnWrite(), h.CreateRoom)
		rooms.PUT("/:id", requireUser, requireManager, responses.PurgeOnWrite(), h.UpdateRoom)
		rooms.DELETE("/:id", requireUser, requireManager, responses.PurgeOnWrite(), h.DeleteRoom)

		items := api.Group("/items")
		items.GET("", responses.Middleware(), h.GetItems)
		items.GET("/:id", responses.Middleware(), h.GetItem)
		items.POST("", requireUser, requireManager, responses.PurgeOnWrite(), h.CreateItem)
		items.PUT("/:id", requireUser, requireManager, responses.PurgeOnWrite(), h.UpdateItem)
		items.DELETE("/:id", requireUser, requireManager, responses.PurgeOnWrite(), h.DeleteItem)

		reservations := api.Group("/reservations", requireUser)
		reservations.POST("/check", h.CheckReservation)
		reservations.GET("", h.GetReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("", h.CreateReservation)
		reservations.PUT("/:id", h.UpdateReservation)
		reservations.POST("/:id/approve", requireManager, h.ApproveReservation)
		reservations.POST("/:id/reject", requireManager, h.RejectReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)

		users := api.Group("/users", requireUser, requireAdmin)
		users.GET("", h.GetUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)

		notifications := api.Group("/notifications", requireUser)
		notifications.GET("", h.GetNotifications)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
		notifications.POST("/:id/read", h.MarkNotificationRead)
		notifications.DELETE("/:id", h.DeleteNotification)

		push := api.Group("/push")
		push.GET("/vapid_public_key", h.GetVAPIDPublicKey)
		push.GET("/subscriptions", requireUser, h.GetSubscriptions)
		push.PUT("/subscriptions", requireUser, h.PutSubscription)
		push.DELETE("/subscriptions", requireUser, h.DeleteSubscription)
		push.POST("/tokens", requireUser, h.RegisterPushToken)
		push.DELETE("/tokens", requireUser, h.DeletePushToken)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
