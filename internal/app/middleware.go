package app

import (
	"github.com/petrovi-4/habit-tracker-backend/internal/middleware"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, services.Auth),
	}
}
