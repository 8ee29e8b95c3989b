package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"pronto-core/internal/models"
)

// Topics carrying Pronto domain events for downstream consumers
// (analytics, receipt printing, the kitchen display sync job).
const (
	TopicOrderPlaced       = "pronto.orders.placed"
	TopicOrderStatus       = "pronto.orders.status"
	TopicCheckoutRequested = "pronto.sessions.checkout"
	TopicPaymentRecorded   = "pronto.sessions.payment"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) PublishOrderPlaced(order models.Order) error {
	return p.publish(TopicOrderPlaced, order.SessionID, order)
}

func (p *Producer) PublishOrderStatusChanged(order models.Order, from, to string) error {
	return p.publish(TopicOrderStatus, order.SessionID, struct {
		models.Order
		From string `json:"from"`
		To   string `json:"to"`
	}{Order: order, From: from, To: to})
}

func (p *Producer) PublishCheckoutRequested(session models.Session) error {
	return p.publish(TopicCheckoutRequested, session.ID, session)
}

func (p *Producer) PublishPaymentRecorded(session models.Session) error {
	return p.publish(TopicPaymentRecorded, session.ID, session)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
