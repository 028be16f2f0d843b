package config

import (
	"errors"
	"os"
)

// RelayConfig holds configuration for the outbox relay service.
// This is a minimal config that only includes what the relay needs.
type RelayConfig struct {
	DatabaseURL string
	RabbitMQURL string
	Exchange    string
	QueueName   string
	HealthAddr  string
	Log         LogConfig
}

func LoadRelayConfig(envFile string) (*RelayConfig, error) {
	loadDotEnv(envFile)

	cfg := &RelayConfig{
		DatabaseURL: os.Getenv("DB_CONNECTION_STRING"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		Exchange:    getEnv("BACKOFFICE_EVENTS_EXCHANGE", "backoffice.events"),
		QueueName:   getEnv("BOOKING_EVENTS_QUEUE", "booking_events"),
		HealthAddr:  getEnv("RELAY_HEALTH_ADDR", ":8090"),
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
	cfg.Log.MaxSizeMB, _ = getInt("LOG_MAX_SIZE_MB", 100)
	cfg.Log.MaxBackups, _ = getInt("LOG_MAX_BACKUPS", 5)
	cfg.Log.MaxAgeDays, _ = getInt("LOG_MAX_AGE_DAYS", 30)

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DB_CONNECTION_STRING environment variable is required")
	}
	if cfg.RabbitMQURL == "" {
		return cfg, errors.New("RABBITMQ_URL environment variable is required")
	}
	return cfg, nil
}
