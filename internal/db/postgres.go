package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/types"
	"github.com/petrovi-4/habit-tracker-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "habits", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Habit{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships...")
	constraints := []struct {
		model interface{}
		name  string
		ddl   string
	}{
		{
			model: &types.UserToken{},
			name:  "fk_user_token_user_id",
			ddl: `ALTER TABLE "user_token"
				ADD CONSTRAINT "fk_user_token_user_id"
				FOREIGN KEY ("user_id") REFERENCES "user"("id")
				ON DELETE CASCADE`,
		},
		{
			model: &types.Habit{},
			name:  "fk_habit_user_id",
			ddl: `ALTER TABLE "habit"
				ADD CONSTRAINT "fk_habit_user_id"
				FOREIGN KEY ("user_id") REFERENCES "user"("id")
				ON DELETE CASCADE`,
		},
		{
			// The habit-to-habit link is a weak reference: deleting the
			// target clears the link instead of cascading.
			model: &types.Habit{},
			name:  "fk_habit_associated_habit_id",
			ddl: `ALTER TABLE "habit"
				ADD CONSTRAINT "fk_habit_associated_habit_id"
				FOREIGN KEY ("associated_habit_id") REFERENCES "habit"("id")
				ON DELETE SET NULL`,
		},
	}
	for _, c := range constraints {
		if s.db.Migrator().HasConstraint(c.model, c.name) {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
