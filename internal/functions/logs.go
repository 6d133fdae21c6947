package functions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"qscope/internal/constants"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/retry"
	"qscope/pkg/tracing"
)

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"

	levelError = "ERROR"
	levelInfo  = "INFO"
)

// ErrorKeywords mark a log line as an error when any appears in it,
// case-insensitively.
var ErrorKeywords = []string{
	"error", "exception", "traceback", "failed", "timeout",
	"fatal", "critical", "panic", "abort", "crash",
}

// LogsAPI is the subset of the CloudWatch Logs client used here.
type LogsAPI interface {
	cloudwatchlogs.FilterLogEventsAPIClient
}

type LogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	TimestampMS int64     `json:"timestamp_ms"`
	Message     string    `json:"message"`
	LogStream   string    `json:"log_stream"`
	IsError     bool      `json:"is_error"`
	Level       string    `json:"level"`
}

type LogQuery struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	HoursBack  int       `json:"hours_back"`
	ErrorsOnly bool      `json:"errors_only"`
	Region     string    `json:"region"`
}

type LogStatistics struct {
	TotalEvents     int `json:"total_events"`
	DisplayedEvents int `json:"displayed_events"`
	ErrorCount      int `json:"error_count"`
	InfoCount       int `json:"info_count"`
}

// FunctionLogs is the outcome for one function. A failed lookup carries
// zeroed statistics and ErrorMessage.
type FunctionLogs struct {
	FunctionName string        `json:"function_name"`
	LogGroup     string        `json:"log_group"`
	Query        LogQuery      `json:"query_info"`
	Statistics   LogStatistics `json:"statistics"`
	Logs         []LogEntry    `json:"logs"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

type LogsSummary struct {
	TotalFunctions      int `json:"total_functions"`
	SuccessfulFunctions int `json:"successful_functions"`
	FailedFunctions     int `json:"failed_functions"`
	TotalEvents         int `json:"total_events"`
	TotalErrors         int `json:"total_errors"`
}

type LogQueryParameters struct {
	FunctionNames []string `json:"function_names"`
	HoursBack     int      `json:"hours_back"`
	ErrorsOnly    bool     `json:"errors_only"`
	Region        string   `json:"region"`
}

type LogReportMetadata struct {
	GeneratedAt     time.Time          `json:"generated_at"`
	QueryParameters LogQueryParameters `json:"query_parameters"`
	Summary         LogsSummary        `json:"summary"`
}

type LogReport struct {
	Metadata  LogReportMetadata       `json:"metadata"`
	Functions map[string]FunctionLogs `json:"functions"`
}

// LogGroup is the CloudWatch Logs group a function writes to.
func LogGroup(function string) string {
	return "/aws/lambda/" + function
}

// IsErrorLine reports whether message contains any of ErrorKeywords.
func IsErrorLine(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range ErrorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// LogReader pulls function log events from CloudWatch Logs.
type LogReader struct {
	client LogsAPI
	region string
	policy retry.Policy
	logger logger.Logger
	now    func() time.Time
}

func NewLogReader(client LogsAPI, region string, log logger.Logger) *LogReader {
	return &LogReader{
		client: client,
		region: region,
		policy: retry.DefaultPolicy(),
		logger: log,
		now:    time.Now,
	}
}

// Read fetches every event of the trailing hoursBack window, newest first.
// It never fails: errors are reported through Status and ErrorMessage.
func (r *LogReader) Read(ctx context.Context, function string, hoursBack int, errorsOnly bool) FunctionLogs {
	if hoursBack <= 0 {
		hoursBack = constants.DefaultLogsHoursBack
	}
	end := r.now().UTC()
	start := end.Add(-time.Duration(hoursBack) * time.Hour)

	result := FunctionLogs{
		FunctionName: function,
		LogGroup:     LogGroup(function),
		Query: LogQuery{
			StartTime:  start,
			EndTime:    end,
			HoursBack:  hoursBack,
			ErrorsOnly: errorsOnly,
			Region:     r.region,
		},
		Logs: []LogEntry{},
	}

	ctx, span := tracing.StartSpan(ctx, "qscope-functions", "functions.logs", "function", function)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	paginator := cloudwatchlogs.NewFilterLogEventsPaginator(r.client, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(result.LogGroup),
		StartTime:    aws.Int64(start.UnixMilli()),
		EndTime:      aws.Int64(end.UnixMilli()),
	})

	var entries []LogEntry
	stats := LogStatistics{}
	for paginator.HasMorePages() {
		var page *cloudwatchlogs.FilterLogEventsOutput
		err = callAWS(ctx, r.policy, r.logger, "filter_log_events", function, func() error {
			var pageErr error
			page, pageErr = paginator.NextPage(ctx)
			return pageErr
		})
		if err != nil {
			result.Status = LogStatusError
			result.ErrorMessage = err.Error()
			if errors.Is(err, apperrors.ErrNotFound) {
				result.ErrorMessage = "log group " + result.LogGroup + " not found"
			}
			r.logger.WarnwCtx(ctx, "Failed to read function logs", "function", function, "error", err)
			return result
		}

		for _, ev := range page.Events {
			ms := aws.ToInt64(ev.Timestamp)
			entry := LogEntry{
				Timestamp:   time.UnixMilli(ms).UTC(),
				TimestampMS: ms,
				Message:     strings.TrimSpace(aws.ToString(ev.Message)),
				LogStream:   aws.ToString(ev.LogStreamName),
				Level:       levelInfo,
			}
			stats.TotalEvents++
			if IsErrorLine(entry.Message) {
				entry.IsError = true
				entry.Level = levelError
				stats.ErrorCount++
			}
			if errorsOnly && !entry.IsError {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].TimestampMS > entries[j].TimestampMS })
	if entries != nil {
		result.Logs = entries
	}
	stats.DisplayedEvents = len(result.Logs)
	stats.InfoCount = stats.TotalEvents - stats.ErrorCount
	result.Statistics = stats
	result.Status = LogStatusSuccess
	return result
}

// ReadAll reads each function in order and summarizes the run.
func (r *LogReader) ReadAll(ctx context.Context, names []string, hoursBack int, errorsOnly bool) LogReport {
	if hoursBack <= 0 {
		hoursBack = constants.DefaultLogsHoursBack
	}
	report := LogReport{
		Metadata: LogReportMetadata{
			QueryParameters: LogQueryParameters{
				FunctionNames: append([]string{}, names...),
				HoursBack:     hoursBack,
				ErrorsOnly:    errorsOnly,
				Region:        r.region,
			},
			Summary: LogsSummary{TotalFunctions: len(names)},
		},
		Functions: make(map[string]FunctionLogs, len(names)),
	}

	for _, name := range names {
		fl := r.Read(ctx, name, hoursBack, errorsOnly)
		report.Functions[name] = fl
		if fl.Status != LogStatusSuccess {
			report.Metadata.Summary.FailedFunctions++
			continue
		}
		report.Metadata.Summary.SuccessfulFunctions++
		report.Metadata.Summary.TotalEvents += fl.Statistics.TotalEvents
		report.Metadata.Summary.TotalErrors += fl.Statistics.ErrorCount
	}
	report.Metadata.GeneratedAt = r.now().UTC()
	return report
}
