package functions

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"qscope/internal/constants"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
	"qscope/pkg/retry"
	"qscope/pkg/tracing"
)

const (
	StatusActive   = "active"
	StatusNotFound = "not_found"
	StatusError    = "error"
	StatusUnknown  = "unknown"
)

const lambdaNamespace = "AWS/Lambda"

// CloudWatchAPI is the subset of the CloudWatch client used here.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

type metricQuery struct {
	id     string
	metric string
	stat   string
}

var metricQueries = []metricQuery{
	{id: "invocations", metric: "Invocations", stat: "Sum"},
	{id: "duration", metric: "Duration", stat: "Average"},
	{id: "errors", metric: "Errors", stat: "Sum"},
	{id: "throttles", metric: "Throttles", stat: "Sum"},
	{id: "concurrent", metric: "ConcurrentExecutions", stat: "Maximum"},
}

type Summary struct {
	ActiveFunctions        int `json:"active_functions"`
	ExecutingFunctions     int `json:"executing_functions"`
	TotalInvocations       int `json:"total_invocations"`
	TotalErrors            int `json:"total_errors"`
	FunctionsWithErrors    int `json:"functions_with_errors"`
	FunctionsWithThrottles int `json:"functions_with_throttles"`
}

type Report struct {
	Timestamp      time.Time                `json:"timestamp"`
	TotalFunctions int                      `json:"total_functions"`
	PeriodMinutes  int                      `json:"monitoring_period_minutes"`
	Functions      []models.FunctionMetrics `json:"functions"`
	Summary        Summary                  `json:"summary"`
}

// Collector reads per-function execution metrics over a trailing window.
type Collector struct {
	lambda     LambdaAPI
	cloudwatch CloudWatchAPI
	period     time.Duration
	policy     retry.Policy
	logger     logger.Logger
	now        func() time.Time
}

func NewCollector(lambdaClient LambdaAPI, cw CloudWatchAPI, period time.Duration, log logger.Logger) *Collector {
	if period <= 0 {
		period = constants.DefaultMetricPeriod
	}
	return &Collector{
		lambda:     lambdaClient,
		cloudwatch: cw,
		period:     period,
		policy:     retry.DefaultPolicy(),
		logger:     log,
		now:        time.Now,
	}
}

func (c *Collector) Period() time.Duration {
	return c.period
}

// Collect never fails: lookup and metric errors are reported through the
// Status and ErrorMessage fields.
func (c *Collector) Collect(ctx context.Context, name string) models.FunctionMetrics {
	end := c.now().UTC()
	m := models.FunctionMetrics{
		FunctionName: name,
		Timestamp:    end,
		Status:       StatusUnknown,
	}

	ctx, span := tracing.StartSpan(ctx, "qscope-functions", "functions.collect", "function", name)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	err = c.call(ctx, "get_function", name, func() error {
		_, err := c.lambda.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(name)})
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.Status = StatusNotFound
			err = nil
			return m
		}
		m.Status = StatusError
		m.ErrorMessage = err.Error()
		return m
	}
	m.Status = StatusActive

	var out *cloudwatch.GetMetricDataOutput
	err = c.call(ctx, "get_metric_data", name, func() error {
		var err error
		out, err = c.cloudwatch.GetMetricData(ctx, c.metricDataInput(name, end))
		return err
	})
	if err != nil {
		m.Status = StatusError
		m.ErrorMessage = err.Error()
		return m
	}

	for _, r := range out.MetricDataResults {
		if len(r.Values) == 0 {
			continue
		}
		latest := r.Values[len(r.Values)-1]
		switch aws.ToString(r.Id) {
		case "invocations":
			m.Invocations = int(latest)
		case "duration":
			m.DurationAvg = round(latest, 2)
		case "errors":
			m.Errors = int(latest)
		case "throttles":
			m.Throttles = int(latest)
		case "concurrent":
			m.ConcurrentExecutions = int(latest)
		}
	}
	Derive(&m)
	metrics.SetFunctionStats(name, float64(m.Invocations), float64(m.Errors))
	return m
}

// CollectAll collects names in order and builds the summary.
func (c *Collector) CollectAll(ctx context.Context, names []string) Report {
	report := Report{
		Timestamp:      c.now().UTC(),
		TotalFunctions: len(names),
		PeriodMinutes:  int(c.period.Minutes()),
		Functions:      make([]models.FunctionMetrics, 0, len(names)),
	}
	for _, name := range names {
		m := c.Collect(ctx, name)
		report.Functions = append(report.Functions, m)

		if m.Status == StatusActive {
			report.Summary.ActiveFunctions++
		}
		if m.IsExecuting {
			report.Summary.ExecutingFunctions++
		}
		report.Summary.TotalInvocations += m.Invocations
		report.Summary.TotalErrors += m.Errors
		if m.Errors > 0 {
			report.Summary.FunctionsWithErrors++
		}
		if m.Throttles > 0 {
			report.Summary.FunctionsWithThrottles++
		}
	}
	return report
}

// Derive fills the rate fields and the executing flag from the raw counts.
func Derive(m *models.FunctionMetrics) {
	if m.Invocations > 0 {
		inv := float64(m.Invocations)
		m.SuccessRate = round(float64(m.Invocations-m.Errors)/inv*100, 1)
		m.ErrorRate = round(float64(m.Errors)/inv*100, 1)
	}
	m.IsExecuting = m.ConcurrentExecutions > 0
}

func (c *Collector) metricDataInput(name string, end time.Time) *cloudwatch.GetMetricDataInput {
	queries := make([]cwtypes.MetricDataQuery, 0, len(metricQueries))
	for _, q := range metricQueries {
		queries = append(queries, cwtypes.MetricDataQuery{
			Id: aws.String(q.id),
			MetricStat: &cwtypes.MetricStat{
				Metric: &cwtypes.Metric{
					Namespace:  aws.String(lambdaNamespace),
					MetricName: aws.String(q.metric),
					Dimensions: []cwtypes.Dimension{
						{Name: aws.String("FunctionName"), Value: aws.String(name)},
					},
				},
				Period: aws.Int32(constants.FunctionMetricStatPeriod),
				Stat:   aws.String(q.stat),
			},
		})
	}
	return &cloudwatch.GetMetricDataInput{
		MetricDataQueries: queries,
		StartTime:         aws.Time(end.Add(-c.period)),
		EndTime:           aws.Time(end),
		ScanBy:            cwtypes.ScanByTimestampAscending,
	}
}

func (c *Collector) call(ctx context.Context, operation, function string, fn func() error) error {
	return callAWS(ctx, c.policy, c.logger, operation, function, fn)
}
