package kafka

import (
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// AllTopics lists every topic this service writes to.
func AllTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderStatus,
		TopicCheckoutRequested,
		TopicPaymentRecorded,
	}
}

// EnsureTopicsExist creates the topics on the cluster controller if they
// are missing. Safe to call on every startup.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	return controllerConn.CreateTopics(configs...)
}
