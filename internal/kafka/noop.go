package kafka

import "pronto-core/internal/models"

// NoopProducer satisfies the publisher interfaces when Kafka is disabled
// (local development, tests).
type NoopProducer struct{}

func (NoopProducer) PublishOrderPlaced(models.Order) error { return nil }

func (NoopProducer) PublishOrderStatusChanged(models.Order, string, string) error { return nil }

func (NoopProducer) PublishCheckoutRequested(models.Session) error { return nil }

func (NoopProducer) PublishPaymentRecorded(models.Session) error { return nil }
