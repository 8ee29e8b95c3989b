package events_test

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pronto-core/internal/events"
	"pronto-core/internal/models"
)

// TestLogIntegration exercises the event log against a real Redis container
func TestLogIntegration(t *testing.T) {
	// Skip if short test mode
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	// Start a Redis container
	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})

	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	defer redisContainer.Terminate(ctx)

	// Get Redis host and port
	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	// Create Redis client
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})

	log := events.NewLog(client, "pronto:test:stream", 100)

	// Append a few events
	first, err := log.Append(models.DomainEvent{
		Type:      models.EventOrderPlaced,
		SessionID: "session-1",
		OrderID:   "order-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := log.Append(models.DomainEvent{
		Type:      models.EventCheckoutRequested,
		SessionID: "session-1",
		Payload:   map[string]string{"status": models.SessionAwaitingTip},
	})
	require.NoError(t, err)

	// Replay from the start
	replayed, cursor, err := log.After("", 10)
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	assert.Equal(t, models.EventOrderPlaced, replayed[0].Type)
	assert.Equal(t, models.EventCheckoutRequested, replayed[1].Type)
	assert.Equal(t, "session-1", replayed[1].SessionID)
	assert.Equal(t, models.SessionAwaitingTip, replayed[1].Payload["status"])
	assert.Equal(t, second.ID, cursor)

	// A poll from the first event's cursor excludes it
	tail, cursor, err := log.After(first.ID, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, second.ID, tail[0].ID)
	assert.Equal(t, second.ID, cursor)

	// Nothing after the newest event; cursor stays put
	empty, cursor, err := log.After(second.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, second.ID, cursor)
}
