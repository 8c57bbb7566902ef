package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Watch       WatchConfig
	OCR         OCRConfig
	Alert       AlertConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds RabbitMQ connection and exchange settings
type RabbitMQConfig struct {
	URL               string
	EventsExchange    string
	ReadingRoutingKey string
	AlertRoutingKey   string
}

// WatchConfig holds directory monitoring settings
type WatchConfig struct {
	Directory     string
	SettleDelayMS int
	Operator      string
}

// OCRConfig holds text recognition settings
type OCRConfig struct {
	TesseractBinary string
	TimeoutSeconds  int
}

// AlertConfig holds consumption alert defaults
type AlertConfig struct {
	DefaultPercent int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "water-metering-worker"),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               getEnv("RABBITMQ_URL", ""),
			EventsExchange:    getEnv("RABBITMQ_EVENTS_EXCHANGE", "water-metering.events.exchange"),
			ReadingRoutingKey: getEnv("RABBITMQ_READING_ROUTING_KEY", "meter.reading.accepted"),
			AlertRoutingKey:   getEnv("RABBITMQ_ALERT_ROUTING_KEY", "meter.consumption.alert"),
		},
		Watch: WatchConfig{
			Directory:     getEnv("WATCH_DIRECTORY", ""),
			SettleDelayMS: getEnvAsInt("WATCH_SETTLE_DELAY_MS", 1500),
			Operator:      getEnv("WATCH_OPERATOR", "worker"),
		},
		OCR: OCRConfig{
			TesseractBinary: getEnv("OCR_TESSERACT_BINARY", "tesseract"),
			TimeoutSeconds:  getEnvAsInt("OCR_TIMEOUT_SECONDS", 30),
		},
		Alert: AlertConfig{
			DefaultPercent: getEnvAsInt("ALERT_DEFAULT_PERCENT", 70),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
