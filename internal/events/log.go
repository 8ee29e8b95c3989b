package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"pronto-core/internal/models"
)

// Log is the append-only domain event log backed by a Redis stream. The
// stream entry ID doubles as the client cursor: polling clients send the
// last ID they saw and receive everything after it. Retention is a
// bounded window via the stream's approximate MaxLen, which is fine
// because a missed event is superseded by the next full-state poll of
// the affected session.
type Log struct {
	Client *redis.Client
	Stream string
	MaxLen int64
}

func NewLog(client *redis.Client, stream string, maxLen int64) *Log {
	if stream == "" {
		stream = "pronto:notifications:stream"
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &Log{Client: client, Stream: stream, MaxLen: maxLen}
}

// Append writes the event to the stream and returns it with the
// assigned cursor ID. Entries are never mutated after append.
func (l *Log) Append(ev models.DomainEvent) (models.DomainEvent, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return ev, fmt.Errorf("marshal event payload: %w", err)
	}

	id, err := l.Client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: l.Stream,
		MaxLen: l.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":   uuid.NewString(),
			"type":       ev.Type,
			"session_id": ev.SessionID,
			"order_id":   ev.OrderID,
			"payload":    string(payload),
			"created_at": ev.CreatedAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return ev, fmt.Errorf("append to stream %s: %w", l.Stream, err)
	}

	ev.ID = id
	return ev, nil
}

// After returns up to limit events with an ID strictly greater than the
// cursor, plus the cursor the client should use next. An empty cursor
// reads from the start of the retained window.
func (l *Log) After(cursor string, limit int64) ([]models.DomainEvent, string, error) {
	start := "-"
	if cursor != "" {
		// "(" makes the range exclusive of the cursor itself
		start = "(" + cursor
	}
	if limit <= 0 {
		limit = 100
	}

	entries, err := l.Client.XRangeN(context.Background(), l.Stream, start, "+", limit).Result()
	if err != nil {
		return nil, cursor, fmt.Errorf("read stream %s after %q: %w", l.Stream, cursor, err)
	}

	out := make([]models.DomainEvent, 0, len(entries))
	next := cursor
	for _, entry := range entries {
		out = append(out, decodeEntry(entry))
		next = entry.ID
	}
	return out, next, nil
}

func decodeEntry(entry redis.XMessage) models.DomainEvent {
	ev := models.DomainEvent{ID: entry.ID}
	if v, ok := entry.Values["type"].(string); ok {
		ev.Type = v
	}
	if v, ok := entry.Values["session_id"].(string); ok {
		ev.SessionID = v
	}
	if v, ok := entry.Values["order_id"].(string); ok {
		ev.OrderID = v
	}
	if v, ok := entry.Values["payload"].(string); ok && v != "" && v != "null" {
		_ = json.Unmarshal([]byte(v), &ev.Payload)
	}
	if v, ok := entry.Values["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			ev.CreatedAt = t
		}
	}
	return ev
}
