package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	MaxRetries int
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type KafkaConfig struct {
	Broker             string
	GroupID            string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxRetention    time.Duration
}

type Config struct {
	Env       string
	LogLevel  string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	RedisAddr string
	Kafka     KafkaConfig
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (when present) and the process environment once. The
// returned value is handed to constructors; nothing else reads os.Getenv.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:       valueOr(getenv("APP_ENV"), "development"),
		LogLevel:  getenv("LOG_LEVEL"),
		Port:      valueOr(getenv("PORT"), "3000"),
		JWTSecret: getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			Host:     valueOr(getenv("DB_HOST"), "localhost"),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME"),
			Port:     valueOr(getenv("DB_PORT"), "5432"),
			SSLMode:  valueOr(getenv("DB_SSLMODE"), "disable"),
		},
		RedisAddr: getenv("REDIS_ADDR"),
		Kafka: KafkaConfig{
			Broker:  getenv("KAFKA_BROKER"),
			GroupID: valueOr(getenv("KAFKA_GROUP_ID"), "go-payroll-notifications"),
		},
	}

	var err error
	if cfg.Database.MaxRetries, err = intOr(getenv("DB_MAX_RETRIES"), 5); err != nil {
		return Config{}, fmt.Errorf("DB_MAX_RETRIES: %w", err)
	}
	if cfg.Kafka.OutboxBatchSize, err = intOr(getenv("OUTBOX_BATCH_SIZE"), 50); err != nil {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE: %w", err)
	}
	if cfg.Kafka.OutboxPollInterval, err = durationOr(getenv("OUTBOX_POLL_INTERVAL"), 3*time.Second); err != nil {
		return Config{}, fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
	}
	if cfg.Kafka.OutboxRetention, err = durationOr(getenv("OUTBOX_RETENTION"), 7*24*time.Hour); err != nil {
		return Config{}, fmt.Errorf("OUTBOX_RETENTION: %w", err)
	}

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intOr(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func durationOr(v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
