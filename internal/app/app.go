package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/petrovi-4/habit-tracker-backend/internal/db"
	"github.com/petrovi-4/habit-tracker-backend/internal/jobs/reminder"
	"github.com/petrovi-4/habit-tracker-backend/internal/observability"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/platform/redisx"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Redis    *redis.Client
	Sweeper  *reminder.Sweeper

	cron         *cron.Cron
	traceCleanup func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	traceCleanup, err := observability.SetupTracing(context.Background(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	redisClient, err := redisx.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset)
	middlewareset := wireMiddleware(log, serviceset)
	router := wireRouter(cfg, handlerset, middlewareset)

	a := &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Redis:        redisClient,
		traceCleanup: traceCleanup,
	}

	if err := a.wireSweeper(); err != nil {
		log.Sync()
		return nil, err
	}
	if err := a.setupCronJobs(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("schedule reminder sweep: %w", err)
	}

	return a, nil
}

func (a *App) Start() {
	if a.cron != nil {
		a.cron.Start()
		a.Log.Info("Reminder sweep scheduled", "cron", a.Cfg.SweepCronSpec)
	}
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr)
	return a.Router.Run(a.Cfg.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.traceCleanup != nil {
		_ = a.traceCleanup(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
