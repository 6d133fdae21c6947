package broker

import (
	"context"
	"fmt"

	"qscope/internal/config"
	"qscope/internal/logger"
)

// Producer publishes JSON-encoded payloads to a topic.
type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// NewProducer builds the producer named by cfg.Type. Kafka is the only
// supported broker.
func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	if cfg.Type != "kafka" {
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka broker requires at least one address")
	}
	return NewKafkaProducer(cfg.Kafka, log), nil
}
