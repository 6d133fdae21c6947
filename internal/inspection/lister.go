package inspection

import (
	"context"
	"time"

	"github.com/google/uuid"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/filtering"
	"qscope/internal/logger"
	"qscope/pkg/compare"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/logging"
	"qscope/pkg/models"
)

type QueueListing struct {
	Queue       string                    `json:"queue"`
	Retrieved   int                       `json:"retrieved"`
	AfterFilter int                       `json:"after_filter"`
	Messages    []models.FormattedMessage `json:"messages"`
	Error       string                    `json:"error,omitempty"`
}

type ListResult struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"started_at"`
	Filters     []string       `json:"filters_applied"`
	Queues      []QueueListing `json:"queues"`
	Unknown     []string       `json:"unknown_queues,omitempty"`
	Retrieved   int            `json:"total_retrieved"`
	AfterFilter int            `json:"total_after_filter"`
}

type ListOptions struct {
	// Queues selects DLQs by friendly name. Empty means every DLQ.
	Queues              []string
	MaxMessagesPerQueue int
	Chain               *filtering.Chain
}

type CountSummary struct {
	RunID   string               `json:"run_id"`
	Field   string               `json:"field"`
	Value   string               `json:"value"`
	Results []models.CountResult `json:"results"`
	Total   int                  `json:"total_matched"`
}

// Inspector runs listing and counting over the configured queues, one queue
// at a time. A failing queue is recorded and the run moves on.
type Inspector struct {
	cfg       *config.Config
	retriever *Retriever
	counter   *Counter
	logger    logger.Logger
}

func NewInspector(cfg *config.Config, retriever *Retriever, counter *Counter, log logger.Logger) *Inspector {
	return &Inspector{
		cfg:       cfg,
		retriever: retriever,
		counter:   counter,
		logger:    log,
	}
}

// ClampMaxMessages bounds the per-queue message limit to [1, 100].
func ClampMaxMessages(n int) int {
	if n < constants.MinMaxMessagesPerQueue {
		return constants.MinMaxMessagesPerQueue
	}
	if n > constants.MaxMaxMessagesPerQueue {
		return constants.MaxMaxMessagesPerQueue
	}
	return n
}

func (i *Inspector) List(ctx context.Context, opts ListOptions) *ListResult {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	chain := opts.Chain
	if chain == nil {
		chain = filtering.NewChain(i.logger)
	}
	limit := ClampMaxMessages(opts.MaxMessagesPerQueue)

	queues, unknown := i.cfg.SelectDLQs(opts.Queues)
	for _, name := range unknown {
		i.logger.WarnwCtx(ctx, "Skipping unknown queue",
			"queue_name", name,
			"error", apperrors.ErrConfiguration.WithDetail("queue", name),
		)
	}

	result := &ListResult{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Filters:   chain.Descriptions(),
		Unknown:   unknown,
		Queues:    make([]QueueListing, 0, len(queues)),
	}

	if len(queues) == 0 {
		i.logger.WarnwCtx(ctx, "No queues selected for listing", "requested", opts.Queues)
		return result
	}

	for _, q := range queues {
		listing := i.listQueue(logging.WithQueueName(ctx, q.Name), q, limit, chain)
		result.Retrieved += listing.Retrieved
		result.AfterFilter += listing.AfterFilter
		result.Queues = append(result.Queues, listing)
	}

	i.logger.InfowCtx(ctx, "Listing finished",
		"queues", len(result.Queues),
		"total_retrieved", result.Retrieved,
		"total_after_filter", result.AfterFilter,
	)
	return result
}

func (i *Inspector) listQueue(ctx context.Context, q models.QueueDescriptor, limit int, chain *filtering.Chain) QueueListing {
	listing := QueueListing{Queue: q.Name}

	raws, err := i.retriever.Fetch(ctx, q.Endpoint, limit)
	if err != nil {
		listing.Error = err.Error()
	}

	formatted := FormatAll(raws, q.Name)
	kept := chain.Apply(formatted)

	listing.Retrieved = len(formatted)
	listing.AfterFilter = len(kept)
	listing.Messages = kept

	i.logger.InfowCtx(ctx, "Queue listed",
		"retrieved", listing.Retrieved,
		"after_filter", listing.AfterFilter,
	)
	return listing
}

// CountQueue resolves a friendly name or URL and counts on it. An
// unresolvable reference yields an empty result carrying the reason.
func (i *Inspector) CountQueue(ctx context.Context, ref, field string, value interface{}, maxMessages int) (models.CountResult, error) {
	q, ok := i.cfg.ResolveQueue(ref)
	if !ok {
		err := apperrors.ErrConfiguration.
			WithDetail("queue", ref).
			WithDetail("reason", "queue not found")
		i.logger.ErrorwCtx(ctx, "Cannot resolve queue", "queue_name", ref, "error", err)
		return models.CountResult{Queue: ref, Field: field, Value: compare.Stringify(value), Error: err.Error()}, err
	}

	result, err := i.counter.CountByField(logging.WithQueueName(ctx, q.Name), q.Endpoint, field, value, maxMessages)
	result.Queue = q.Name
	return result, err
}

// CountAll counts on the given queues, or on every DLQ when refs is empty.
// Per-queue failures are kept in the results and never stop the run.
func (i *Inspector) CountAll(ctx context.Context, refs []string, field string, value interface{}, maxMessages int) CountSummary {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	if len(refs) == 0 {
		for _, q := range i.cfg.DLQs() {
			refs = append(refs, q.Name)
		}
	}

	summary := CountSummary{
		RunID:   runID,
		Field:   field,
		Value:   compare.Stringify(value),
		Results: make([]models.CountResult, 0, len(refs)),
	}
	for _, ref := range refs {
		result, err := i.CountQueue(ctx, ref, field, value, maxMessages)
		if err != nil {
			i.logger.WarnwCtx(ctx, "Count incomplete", "queue_name", ref, "error", err)
		}
		summary.Total += result.Matched
		summary.Results = append(summary.Results, result)
	}
	return summary
}
