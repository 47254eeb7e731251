package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
	"github.com/petrovi-4/habit-tracker-backend/internal/utils"
)

type Config struct {
	Addr             string
	JWTSecretKey     string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	TelegramToken    string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	MediaDir         string
	AvatarFont       string
	SweepCronSpec    string
	SweepSendTimeout time.Duration
	SweepConcurrency int
}

// fileConfig is the optional YAML overlay pointed at by CONFIG_FILE;
// environment variables provide the defaults it overrides.
type fileConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Media struct {
		Dir  string `yaml:"dir"`
		Font string `yaml:"font"`
	} `yaml:"media"`
	Sweep struct {
		Cron               string `yaml:"cron"`
		SendTimeoutSeconds int    `yaml:"send_timeout_seconds"`
		Concurrency        int    `yaml:"concurrency"`
	} `yaml:"sweep"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Addr:             utils.GetEnv("ADDR", ":8080", log),
		JWTSecretKey:     utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:   time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL:  time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		TelegramToken:    utils.GetEnv("TELEGRAM_BOT_TOKEN", "", log),
		RedisAddr:        utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword:    utils.GetEnv("REDIS_PASSWORD", "", log),
		RedisDB:          utils.GetEnvAsInt("REDIS_DB", 0, log),
		MediaDir:         utils.GetEnv("MEDIA_DIR", "media", log),
		AvatarFont:       utils.GetEnv("AVATAR_FONT", "", log),
		SweepCronSpec:    utils.GetEnv("SWEEP_CRON", "0 * * * *", log),
		SweepSendTimeout: time.Duration(utils.GetEnvAsInt("SWEEP_SEND_TIMEOUT", 10, log)) * time.Second,
		SweepConcurrency: utils.GetEnvAsInt("SWEEP_CONCURRENCY", 8, log),
	}

	path := utils.GetEnv("CONFIG_FILE", "", log)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if fc.Telegram.Token != "" {
		cfg.TelegramToken = fc.Telegram.Token
	}
	if fc.Redis.Addr != "" {
		cfg.RedisAddr = fc.Redis.Addr
		cfg.RedisPassword = fc.Redis.Password
		cfg.RedisDB = fc.Redis.DB
	}
	if fc.Media.Dir != "" {
		cfg.MediaDir = fc.Media.Dir
	}
	if fc.Media.Font != "" {
		cfg.AvatarFont = fc.Media.Font
	}
	if fc.Sweep.Cron != "" {
		cfg.SweepCronSpec = fc.Sweep.Cron
	}
	if fc.Sweep.SendTimeoutSeconds > 0 {
		cfg.SweepSendTimeout = time.Duration(fc.Sweep.SendTimeoutSeconds) * time.Second
	}
	if fc.Sweep.Concurrency > 0 {
		cfg.SweepConcurrency = fc.Sweep.Concurrency
	}
	log.Info("Config file applied", "path", path)
	return cfg, nil
}
