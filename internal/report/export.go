package report

import (
	"context"
	"time"

	"qscope/internal/functions"
	"qscope/internal/inspection"
	"qscope/pkg/models"
)

const filenameTimeLayout = "20060102_150405"

type Metadata struct {
	ExportTimestamp time.Time `json:"export_timestamp" bson:"export_timestamp"`
	RunID           string    `json:"run_id" bson:"run_id"`
	FiltersApplied  []string  `json:"filters_applied" bson:"filters_applied"`
	TotalQueues     int       `json:"total_queues" bson:"total_queues"`
	SelectedQueues  []string  `json:"selected_queues" bson:"selected_queues"`
}

// FilteredExport holds the messages that passed the filters, keyed by queue.
// Receipt tokens are never present.
type FilteredExport struct {
	Metadata Metadata                             `json:"metadata" bson:"metadata"`
	Results  map[string][]models.FormattedMessage `json:"results" bson:"results"`
}

type CountExport struct {
	ExportTimestamp time.Time            `json:"export_timestamp" bson:"export_timestamp"`
	RunID           string               `json:"run_id" bson:"run_id"`
	Field           string               `json:"field" bson:"field"`
	Value           string               `json:"value" bson:"value"`
	Results         []models.CountResult `json:"results" bson:"results"`
	TotalMatched    int                  `json:"total_matched" bson:"total_matched"`
}

// Exporter persists inspection results and returns where they went.
type Exporter interface {
	Name() string
	ExportFiltered(ctx context.Context, exp FilteredExport) (string, error)
	ExportCount(ctx context.Context, exp CountExport) (string, error)
	ExportLogs(ctx context.Context, r functions.LogReport) (string, error)
}

// NewFilteredExport keeps only queues with at least one message after
// filtering, in listing order.
func NewFilteredExport(result *inspection.ListResult, now time.Time) FilteredExport {
	exp := FilteredExport{
		Metadata: Metadata{
			ExportTimestamp: now,
			RunID:           result.RunID,
			FiltersApplied:  append([]string{}, result.Filters...),
			SelectedQueues:  []string{},
		},
		Results: make(map[string][]models.FormattedMessage),
	}
	for _, q := range result.Queues {
		if len(q.Messages) == 0 {
			continue
		}
		clean := make([]models.FormattedMessage, 0, len(q.Messages))
		for _, m := range q.Messages {
			clean = append(clean, m.WithoutReceipt())
		}
		exp.Results[q.Queue] = clean
		exp.Metadata.SelectedQueues = append(exp.Metadata.SelectedQueues, q.Queue)
	}
	exp.Metadata.TotalQueues = len(exp.Metadata.SelectedQueues)
	return exp
}

func NewCountExport(summary inspection.CountSummary, now time.Time) CountExport {
	return CountExport{
		ExportTimestamp: now,
		RunID:           summary.RunID,
		Field:           summary.Field,
		Value:           summary.Value,
		Results:         summary.Results,
		TotalMatched:    summary.Total,
	}
}

func (e FilteredExport) Empty() bool {
	return len(e.Results) == 0
}
