package app

import (
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Habit     repos.HabitRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Habit:     repos.NewHabitRepo(db, log),
	}
}
