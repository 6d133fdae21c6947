package monitor

import (
	"context"

	"qscope/internal/broker"
	"qscope/pkg/models"
)

// KafkaSink publishes each change event keyed by queue name.
type KafkaSink struct {
	producer broker.Producer
	topic    string
}

func NewKafkaSink(producer broker.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Record(ctx context.Context, _ models.QueueSnapshot, events []models.ChangeEvent) error {
	for _, e := range events {
		if err := s.producer.Publish(ctx, s.topic, e.QueueName, e); err != nil {
			return err
		}
	}
	return nil
}

// Close leaves the producer to its owner.
func (s *KafkaSink) Close() error {
	return nil
}
