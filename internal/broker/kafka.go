package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/retry"
	"qscope/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	policy retry.Policy
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return newKafkaProducer(w, log)
}

func newKafkaProducer(w messageWriter, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: w,
		policy: retry.Policy{
			MaxAttempts:     3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
		},
		logger: log,
	}
}

// Publish writes payload as JSON. Messages with the same key land on the same
// partition, so events for one queue stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, payload interface{}) (err error) {
	ctx, span := tracing.StartPublishSpan(ctx, topic)
	defer func() { tracing.EndSpan(span, err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err).WithDetail("topic", topic)
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   body,
		Headers: tracing.InjectTraceContext(ctx, nil),
		Time:    time.Now(),
	}

	start := time.Now()
	err = retry.Do(ctx, p.policy, func() error {
		return p.writer.WriteMessages(ctx, msg)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.IncRetryAttempt("kafka_publish")
		p.logger.WarnwCtx(ctx, "Retrying kafka publish",
			"topic", topic,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	metrics.ObserveKafkaWriteDuration(topic, time.Since(start))
	if err != nil {
		return apperrors.ErrUnavailable.WithCause(err).WithDetail("topic", topic)
	}

	metrics.IncKafkaMessagesWritten(topic)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
