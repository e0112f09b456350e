package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Notification NotificationConfig
	Queue        QueueConfig
	Cron         CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// NotificationConfig sizes the notification batching workers
type NotificationConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

// QueueConfig configures the SQS publisher for outbound attendance events
type QueueConfig struct {
	Enabled  bool
	QueueURL string
	Region   string
	Endpoint string
}

// CronConfig configures background jobs
type CronConfig struct {
	Enabled           bool
	OpenShiftInterval time.Duration
	OpenShiftMaxAge   time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded, using process environment", "error", err)
	}

	var errs []error
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432, &errs),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "timeclock"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
		MinConns:        int32(getEnvInt("DB_MIN_CONNS", 5, &errs)),
		MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour, &errs),
	}

	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "timeclock"),
		Version:        getEnv("APP_VERSION", "v1.0.0"),
		Port:           getEnvInt("APP_PORT", 8080, &errs),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour, &errs),
	}

	config.Notification = NotificationConfig{
		BatchSize:     getEnvInt("NOTIFICATION_BATCH_SIZE", 100, &errs),
		FlushInterval: getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second, &errs),
		WorkerCount:   getEnvInt("NOTIFICATION_WORKERS", 2, &errs),
		QueueSize:     getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000, &errs),
	}

	config.Queue = QueueConfig{
		Enabled:  getEnvBool("QUEUE_ENABLED", false, &errs),
		QueueURL: getEnv("SQS_QUEUE_URL", ""),
		Region:   getEnv("AWS_REGION", "us-east-1"),
		Endpoint: getEnv("AWS_ENDPOINT", ""),
	}

	config.Cron = CronConfig{
		Enabled:           getEnvBool("CRON_ENABLED", true, &errs),
		OpenShiftInterval: getEnvDuration("CRON_OPEN_SHIFT_INTERVAL", 15*time.Minute, &errs),
		OpenShiftMaxAge:   getEnvDuration("CRON_OPEN_SHIFT_MAX_AGE", 12*time.Hour, &errs),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if c.Queue.Enabled && c.Queue.QueueURL == "" {
		return fmt.Errorf("SQS_QUEUE_URL is required when QUEUE_ENABLED is set")
	}
	if c.Cron.Enabled && c.Cron.OpenShiftInterval <= 0 {
		return fmt.Errorf("CRON_OPEN_SHIFT_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (a AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
