package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pronto-core/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, ":8085", cfg.Server.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "pronto:notifications:stream", cfg.Events.Stream)
	assert.Equal(t, int64(1000), cfg.Events.MaxLen)
	assert.Equal(t, 0.16, cfg.Payments.TaxRate)
	assert.True(t, cfg.Payments.TippingEnabled)
	assert.Equal(t, 10*time.Second, cfg.Payments.Timeout)
	assert.Equal(t, "mxn", cfg.Payments.Currency)
	assert.Equal(t, 256, cfg.Tables.QRSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("TAX_RATE", "0.08")
	t.Setenv("TIPPING_ENABLED", "false")
	t.Setenv("PAYMENT_TIMEOUT_SECONDS", "30")
	t.Setenv("EVENT_STREAM_MAXLEN", "5000")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 0.08, cfg.Payments.TaxRate)
	assert.False(t, cfg.Payments.TippingEnabled)
	assert.Equal(t, 30*time.Second, cfg.Payments.Timeout)
	assert.Equal(t, int64(5000), cfg.Events.MaxLen)
}

func TestMalformedEnvFallsBackToDefaults(t *testing.T) {
	t.Setenv("TAX_RATE", "not-a-number")
	t.Setenv("TIPPING_ENABLED", "sometimes")
	t.Setenv("EVENT_STREAM_MAXLEN", "lots")

	cfg := config.Load()

	assert.Equal(t, 0.16, cfg.Payments.TaxRate)
	assert.True(t, cfg.Payments.TippingEnabled)
	assert.Equal(t, int64(1000), cfg.Events.MaxLen)
}
