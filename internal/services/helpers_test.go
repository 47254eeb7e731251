package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/repos"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Habit{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func seedUser(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "irrelevant",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func newTestHabitService(t *testing.T) (*gorm.DB, repos.HabitRepo, HabitService) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	habitRepo := repos.NewHabitRepo(db, log)
	return db, habitRepo, NewHabitService(db, log, habitRepo)
}

func newTestAuthService(t *testing.T) (*gorm.DB, AuthService) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	return db, NewAuthService(db, log, userRepo, tokenRepo, nil, "test-secret", time.Hour, 24*time.Hour)
}
