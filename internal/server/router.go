package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/petrovi-4/habit-tracker-backend/internal/handlers"
	"github.com/petrovi-4/habit-tracker-backend/internal/middleware"
	"github.com/petrovi-4/habit-tracker-backend/internal/observability"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	HabitHandler   *handlers.HabitHandler
	MediaDir       string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(observability.ServiceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.MediaDir != "" {
		router.Static("/media", cfg.MediaDir)
	}

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/logout", cfg.AuthHandler.Logout)

		protected.GET("/user", cfg.UserHandler.GetMe)
		protected.PATCH("/user", cfg.UserHandler.UpdateMe)

		protected.POST("/habits", cfg.HabitHandler.Create)
		protected.GET("/habits", cfg.HabitHandler.ListOwned)
		protected.GET("/habits/public", cfg.HabitHandler.ListPublic)
		protected.GET("/habits/:id", cfg.HabitHandler.Get)
		protected.PATCH("/habits/:id", cfg.HabitHandler.Update)
		protected.DELETE("/habits/:id", cfg.HabitHandler.Delete)
	}

	return router
}
