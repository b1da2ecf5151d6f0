package routes

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/darkruden/mock-interview-ai/internal/api/handlers"
	"github.com/darkruden/mock-interview-ai/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	Trigger *handlers.TriggerHandler
	Token   *handlers.TokenHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/")
	if os.Getenv("AUTH_JWT_SECRET") != "" {
		api.Use(middleware.JWTAuth())
	}

	api.POST("/session/start", d.Session.Initiate)
	api.GET("/session/:session_id", d.Session.Get)
	api.GET("/token", d.Token.Get)
	api.GET("/ws/session/:session_id", d.WS.SessionStatusWS)

	// Storage notifications come from the bucket's push subscription, not
	// from clients; it stays outside the auth group.
	r.POST("/events/storage", d.Trigger.HandleStorageEvent)
}
