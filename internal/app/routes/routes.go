package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/studygraph/internal/app/controllers"
	"github.com/yigit/studygraph/internal/middleware"
	"github.com/yigit/studygraph/internal/pkg/websocket"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	Profile     *controllers.ProfileController
	Course      *controllers.CourseController
	Match       *controllers.MatchController
	Friend      *controllers.FriendController
	Suggestion  *controllers.SuggestionController
	MatchStream *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.LoadUser())
	{
		authenticated.GET("/me", ctrl.Profile.Me)
		authenticated.PUT("/me/origin", ctrl.Profile.UpdateOrigin)
		authenticated.GET("/users", ctrl.Profile.Directory)

		courses := authenticated.Group("/courses")
		{
			courses.GET("", ctrl.Course.List)
			courses.POST("/upload", ctrl.Course.Upload)
		}

		authenticated.GET("/matches", ctrl.Match.List)

		friends := authenticated.Group("/friends")
		{
			friends.GET("", ctrl.Friend.List)
			friends.POST("", ctrl.Friend.Add)
		}

		suggestions := authenticated.Group("/suggestions")
		{
			suggestions.GET("", ctrl.Suggestion.State)
			suggestions.POST("/select", ctrl.Suggestion.Select)
			suggestions.POST("/preview", ctrl.Suggestion.Preview)
		}
	}

	// Match stream lives outside /api/v1 and authenticates with ?token=
	ws := router.Group("/ws")
	ws.Use(authMiddleware.JWTAuth(), authMiddleware.LoadUser())
	{
		ws.GET("/matches", ctrl.MatchStream.HandleConnection)
	}
}
