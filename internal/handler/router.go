package handler

import (
	"net/http"
	"time"

	"turfbuddy/backend/internal/auth"
	"turfbuddy/backend/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "turfbuddy/backend/docs"
)

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	Games          *GameHandler
	Users          *UserHandler
	Auth           *auth.Authenticator
	Logger         *zap.Logger
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(cfg.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	required := cfg.Auth.Required()
	optional := cfg.Auth.Optional()

	apiV1 := router.Group("/api/v1")
	{
		userRoutes := apiV1.Group("/users")
		{
			userRoutes.POST("/register", cfg.Users.RegisterUser)
			userRoutes.POST("/login", cfg.Users.LoginUser)
			userRoutes.POST("/logout", optional, cfg.Users.LogoutUser)
			userRoutes.GET("/profile", required, cfg.Users.GetProfile)
			userRoutes.GET("/check", required, cfg.Users.CheckAuth)
		}

		gameRoutes := apiV1.Group("/games")
		{
			gameRoutes.GET("", optional, cfg.Games.GetGames)
			gameRoutes.POST("", required, cfg.Games.CreateGame)
			gameRoutes.GET("/:id", optional, cfg.Games.GetGameByID)
			gameRoutes.PATCH("/:id", required, cfg.Games.UpdateGame)
			gameRoutes.DELETE("/:id", required, cfg.Games.DeleteGame)
			gameRoutes.POST("/:id/join", required, cfg.Games.JoinGame)
			gameRoutes.POST("/:id/leave", required, cfg.Games.LeaveGame)
			gameRoutes.GET("/:id/events", cfg.Games.GameEvents)
		}
	}

	return router
}
