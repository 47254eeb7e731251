package app

import (
	"github.com/gin-gonic/gin"

	"github.com/petrovi-4/habit-tracker-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		UserHandler:    handlers.User,
		HabitHandler:   handlers.Habit,
		MediaDir:       cfg.MediaDir,
	})
}
