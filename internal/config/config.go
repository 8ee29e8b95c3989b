package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Events   EventsConfig
	Payments PaymentsConfig
	Auth     AuthConfig
	Tables   TablesConfig
}

type ServerConfig struct {
	Addr        string
	ReadTimeout time.Duration
	// no write timeout: the SSE stream endpoint holds responses open
	IdleTimeout time.Duration
}

type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	AutoMigrate   bool
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

type EventsConfig struct {
	Stream string
	MaxLen int64
}

type PaymentsConfig struct {
	TaxRate        float64
	TippingEnabled bool
	Timeout        time.Duration
	StripeKey      string
	Currency       string
}

type AuthConfig struct {
	OIDCIssuer string
}

type TablesConfig struct {
	// BaseURL is where table QR codes point the customer's phone.
	BaseURL string
	QRSize  int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("PORT", ":8085"),
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:           getEnv("POSTGRES_DSN", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
		},
		Events: EventsConfig{
			Stream: getEnv("EVENT_STREAM", "pronto:notifications:stream"),
			MaxLen: int64(getEnvInt("EVENT_STREAM_MAXLEN", 1000)),
		},
		Payments: PaymentsConfig{
			TaxRate:        getEnvFloat("TAX_RATE", 0.16),
			TippingEnabled: getEnvBool("TIPPING_ENABLED", true),
			Timeout:        time.Duration(getEnvInt("PAYMENT_TIMEOUT_SECONDS", 10)) * time.Second,
			StripeKey:      getEnv("STRIPE_SECRET_KEY", ""),
			Currency:       getEnv("PAYMENT_CURRENCY", "mxn"),
		},
		Auth: AuthConfig{
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
		},
		Tables: TablesConfig{
			BaseURL: getEnv("TABLE_BASE_URL", "https://pronto.local/mesa"),
			QRSize:  getEnvInt("TABLE_QR_SIZE", 256),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
