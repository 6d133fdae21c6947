package inspection

import (
	"context"
	"errors"
	"strconv"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	"qscope/internal/transport"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
	"qscope/pkg/tracing"
)

type BatchFunc func(batch []models.RawMessage) error

// Retriever pulls messages from a queue in batches of at most ten. It only
// receives; nothing is ever deleted.
type Retriever struct {
	transport   transport.Transport
	waitSeconds int
	logger      logger.Logger
}

func NewRetriever(t transport.Transport, cfg config.InspectionConfig, log logger.Logger) *Retriever {
	return &Retriever{
		transport:   t,
		waitSeconds: cfg.WaitTimeSeconds,
		logger:      log,
	}
}

// Stream hands each non-empty batch to fn until limit messages have been
// received or the queue returns an empty batch. A limit <= 0 means no limit.
// A transport failure stops the stream; batches already handed to fn stay
// delivered.
func (r *Retriever) Stream(ctx context.Context, endpoint string, limit int, fn BatchFunc) (err error) {
	ctx, span := tracing.StartSpan(ctx, "qscope-inspection", "inspection.stream",
		"queue.endpoint", endpoint, "limit", strconv.Itoa(limit))
	defer func() { tracing.EndSpan(span, err) }()

	fetched := 0
	for limit <= 0 || fetched < limit {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchSize := constants.MaxBatchSize
		if limit > 0 && limit-fetched < batchSize {
			batchSize = limit - fetched
		}

		batch, err := r.transport.Receive(ctx, endpoint, batchSize, r.waitSeconds)
		if err != nil {
			r.logger.ErrorwCtx(ctx, "Failed to receive from queue",
				"endpoint", endpoint,
				"fetched", fetched,
				"error", err,
			)
			return asTransportError(err, endpoint)
		}

		if len(batch) == 0 {
			r.logger.DebugwCtx(ctx, "Queue returned no more messages",
				"endpoint", endpoint,
				"fetched", fetched,
			)
			return nil
		}

		fetched += len(batch)
		metrics.AddRetrievedMessages(endpoint, len(batch))
		r.logger.InfowCtx(ctx, "Received batch",
			"endpoint", endpoint,
			"batch_size", len(batch),
			"fetched", fetched,
		)

		if err := fn(batch); err != nil {
			return err
		}
	}

	return nil
}

// Fetch collects up to limit messages. On a transport error the messages
// received so far are returned together with the error.
func (r *Retriever) Fetch(ctx context.Context, endpoint string, limit int) ([]models.RawMessage, error) {
	var messages []models.RawMessage
	err := r.Stream(ctx, endpoint, limit, func(batch []models.RawMessage) error {
		messages = append(messages, batch...)
		return nil
	})
	return messages, err
}

func asTransportError(err error, endpoint string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.ErrTransport.WithCause(err).WithDetail("endpoint", endpoint)
}
