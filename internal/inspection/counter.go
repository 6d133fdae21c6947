package inspection

import (
	"context"
	"strconv"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	"qscope/pkg/compare"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
	"qscope/pkg/tracing"
)

const (
	OutcomeMatched      = "matched"
	OutcomeMismatched   = "mismatched"
	OutcomeJSONError    = "json_error"
	OutcomeMissingField = "missing_field"
)

type ProgressFunc func(processed, matched int)

type Counter struct {
	retriever     *Retriever
	progressEvery int
	progress      ProgressFunc
	logger        logger.Logger
}

func NewCounter(r *Retriever, cfg config.InspectionConfig, log logger.Logger) *Counter {
	every := cfg.ProgressEvery
	if every <= 0 {
		every = constants.DefaultProgressEvery
	}
	return &Counter{
		retriever:     r,
		progressEvery: every,
		logger:        log,
	}
}

// OnProgress registers fn to be called every progressEvery processed messages.
func (c *Counter) OnProgress(fn ProgressFunc) {
	c.progress = fn
}

// CountByField counts messages whose JSON body has field equal to value under
// the tolerant comparison. maxMessages <= 0 reads until the queue returns an
// empty batch. On a transport error the partial tally is returned along with
// the error.
func (c *Counter) CountByField(ctx context.Context, endpoint, field string, value interface{}, maxMessages int) (result models.CountResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "qscope-inspection", "inspection.count_by_field",
		"queue.endpoint", endpoint, "field", field, "max_messages", strconv.Itoa(maxMessages))
	defer func() { tracing.EndSpan(span, err) }()

	result = models.CountResult{
		Queue: endpoint,
		Field: field,
		Value: compare.Stringify(value),
	}

	c.logger.InfowCtx(ctx, "Counting messages by field",
		"endpoint", endpoint,
		"field", field,
		"value", result.Value,
		"max_messages", maxMessages,
	)

	err = c.retriever.Stream(ctx, endpoint, maxMessages, func(batch []models.RawMessage) error {
		for _, raw := range batch {
			outcome := classifyMessage(raw, field, value)
			result.Processed++
			switch outcome {
			case OutcomeMatched:
				result.Matched++
			case OutcomeMismatched:
				result.Mismatched++
			case OutcomeJSONError:
				result.JSONErrors++
			case OutcomeMissingField:
				result.MissingField++
			}
			metrics.IncCountOutcome(endpoint, outcome)

			if c.progress != nil && result.Processed%c.progressEvery == 0 {
				c.progress(result.Processed, result.Matched)
			}
		}
		return nil
	})
	if err != nil {
		result.Error = err.Error()
	}

	c.logger.InfowCtx(ctx, "Count finished",
		"endpoint", endpoint,
		"processed", result.Processed,
		"matched", result.Matched,
		"json_errors", result.JSONErrors,
		"missing_field", result.MissingField,
	)

	return result, err
}

func classifyMessage(raw models.RawMessage, field string, value interface{}) string {
	decoded, err := DecodeBody(raw.Body)
	if err != nil {
		return OutcomeJSONError
	}
	body, ok := decoded.(map[string]interface{})
	if !ok {
		return OutcomeJSONError
	}
	actual, present := body[field]
	if !present {
		return OutcomeMissingField
	}
	if compare.Equals(actual, value) {
		return OutcomeMatched
	}
	return OutcomeMismatched
}
