package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"qscope/internal/broker"
	"qscope/internal/config"
	"qscope/internal/logger"
	"qscope/internal/transport"
)

// Base carries what every command needs: configuration, the logger, AWS
// credentials and, when configured, the change-event producer.
type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	AWS      aws.Config
	Producer broker.Producer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{Config: cfg, Logger: log}
}

func (b *Base) InitAWS(ctx context.Context) error {
	awsCfg, err := transport.LoadAWSConfig(ctx, b.Config.AWS)
	if err != nil {
		return fmt.Errorf("failed to load aws config: %w", err)
	}
	b.AWS = awsCfg
	b.Logger.Debugw("AWS config loaded", "region", awsCfg.Region, "endpoint", b.Config.AWS.Endpoint)
	return nil
}

// InitBroker is a no-op when no broker is configured.
func (b *Base) InitBroker() error {
	if b.Config.Broker.Type == "" {
		return nil
	}
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	b.Producer = producer
	return nil
}

// Shutdown closes the producer, then runs release. All failures are joined.
func (b *Base) Shutdown(ctx context.Context, release func(ctx context.Context) error) error {
	var errs []error
	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close: %w", err))
		}
		b.Producer = nil
	}
	if release != nil {
		errs = append(errs, release(ctx))
	}

	err := errors.Join(errs...)
	if err != nil {
		b.Logger.Warnw("Shutdown finished with errors", "error", err)
	}
	return err
}
