package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/services"
)

type Services struct {
	Auth   services.AuthService
	User   services.UserService
	Habit  services.HabitService
	Avatar services.AvatarService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, cfg.MediaDir, cfg.AvatarFont)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	authService := services.NewAuthService(
		db, log,
		reposet.User, reposet.UserToken, avatarService,
		cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)

	return Services{
		Auth:   authService,
		User:   services.NewUserService(db, log, reposet.User),
		Habit:  services.NewHabitService(db, log, reposet.Habit),
		Avatar: avatarService,
	}, nil
}
