package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultHorizonDays     = 30
	defaultRefreshInterval = 24 * time.Hour
	defaultGeminiModel     = "gemini-1.5-flash"
)

type Config struct {
	DBDSN         string
	Environment   string
	HTTPAddr      string
	JWTSecret     string
	TelegramToken string // пустой токен отключает бота
	GeminiAPIKey  string // пустой ключ включает заглушку чата
	GeminiModel   string
	MigrationsDir string // пусто = встроенные миграции

	Location        *time.Location
	HorizonDays     int
	RefreshInterval time.Duration // 0 отключает фоновую генерацию слотов
}

// Load читает .env (если есть) и переменные окружения.
// Второе значение сообщает, был ли найден .env.
func Load() (*Config, bool, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	envFile := godotenv.Load(".env") == nil

	cfg, err := FromEnv(os.Getenv)
	return cfg, envFile, err
}

// FromEnv собирает конфигурацию из getenv и проверяет обязательные поля
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:         getenv("DB_DSN"),
		Environment:   getenv("ENV"),
		HTTPAddr:      getenv("HTTP_ADDR"),
		JWTSecret:     getenv("JWT_SECRET"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		GeminiAPIKey:  getenv("GEMINI_API_KEY"),
		GeminiModel:   getenv("GEMINI_MODEL"),
		MigrationsDir: getenv("MIGRATIONS_DIR"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaultGeminiModel
	}

	var errs []error

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required but not set"))
	}

	tz := getenv("TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", tz, err))
	}
	cfg.Location = loc

	cfg.HorizonDays = defaultHorizonDays
	if raw := getenv("SLOT_HORIZON_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			errs = append(errs, fmt.Errorf("SLOT_HORIZON_DAYS must be a positive integer, got %q", raw))
		}
		cfg.HorizonDays = days
	}

	cfg.RefreshInterval = defaultRefreshInterval
	if raw := getenv("SLOT_REFRESH_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval < 0 {
			errs = append(errs, fmt.Errorf("SLOT_REFRESH_INTERVAL must be a non-negative duration, got %q", raw))
		}
		cfg.RefreshInterval = interval
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
