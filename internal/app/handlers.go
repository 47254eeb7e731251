package app

import (
	"github.com/petrovi-4/habit-tracker-backend/internal/handlers"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Habit *handlers.HabitHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:  handlers.NewAuthHandler(services.Auth),
		User:  handlers.NewUserHandler(log, services.User),
		Habit: handlers.NewHabitHandler(log, services.Habit),
	}
}
