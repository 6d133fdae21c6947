package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RetrievedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_retrieved_messages_total",
			Help: "Total number of messages received from inspected queues (count)",
		},
		[]string{"queue"},
	)

	ReceiveCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_receive_calls_total",
			Help: "Total number of batch receive calls issued to the transport (count)",
		},
		[]string{"queue", "status"},
	)

	ReceiveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qscope_receive_duration_ms",
			Help:    "Duration of a single batch receive call in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 1500, 2500, 5000},
		},
		[]string{"queue"},
	)

	FilterEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_filter_evaluations_total",
			Help: "Total number of predicate evaluations (count)",
		},
		[]string{"kind", "result"},
	)

	CountOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_count_outcomes_total",
			Help: "Field counter outcomes per processed message (count)",
		},
		[]string{"queue", "outcome"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qscope_queue_depth",
			Help: "Approximate number of visible messages in a queue (count)",
		},
		[]string{"queue"},
	)

	QueueDepthErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_queue_depth_errors_total",
			Help: "Total number of failed depth reads (count)",
		},
		[]string{"queue"},
	)

	ChangeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_change_events_total",
			Help: "Total number of queue depth change events (count)",
		},
		[]string{"queue", "kind"},
	)

	SinkWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_sink_writes_total",
			Help: "Total number of change event sink writes (count)",
		},
		[]string{"sink", "status"},
	)

	TransportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_transport_errors_total",
			Help: "Total number of transport errors by operation (count)",
		},
		[]string{"operation"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"operation"},
	)

	FunctionInvocations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qscope_function_invocations",
			Help: "Invocations of a function over the last metric window (count)",
		},
		[]string{"function"},
	)

	FunctionErrors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qscope_function_errors",
			Help: "Errors of a function over the last metric window (count)",
		},
		[]string{"function"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qscope_kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"topic"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qscope_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_http_requests_total",
			Help: "Total number of HTTP requests served (count)",
		},
		[]string{"path", "status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qscope_rate_limit_requests_total",
			Help: "Total number of HTTP requests checked by the rate limiter (count)",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// RegisterAll registers every collector with the default registry. Safe to
// call more than once.
func RegisterAll() {
	registerOnce.Do(func() {
		RegisterInspectionMetrics()
		RegisterMonitorMetrics()
		RegisterFunctionMetrics()
		RegisterBrokerMetrics()
		RegisterCircuitBreakerMetrics()
		RegisterHTTPMetrics()
	})
}

func RegisterInspectionMetrics() {
	prometheus.MustRegister(RetrievedMessagesTotal)
	prometheus.MustRegister(ReceiveCallsTotal)
	prometheus.MustRegister(ReceiveDuration)
	prometheus.MustRegister(FilterEvaluationsTotal)
	prometheus.MustRegister(CountOutcomesTotal)
	prometheus.MustRegister(TransportErrorsTotal)
	prometheus.MustRegister(RetryAttemptsTotal)
}

func RegisterMonitorMetrics() {
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(QueueDepthErrorsTotal)
	prometheus.MustRegister(ChangeEventsTotal)
	prometheus.MustRegister(SinkWritesTotal)
}

func RegisterFunctionMetrics() {
	prometheus.MustRegister(FunctionInvocations)
	prometheus.MustRegister(FunctionErrors)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterHTTPMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func IncHTTPRequest(path string, status int) {
	HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

func ObserveReceive(queue string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ReceiveCallsTotal.WithLabelValues(queue, status).Inc()
	ReceiveDuration.WithLabelValues(queue).Observe(float64(duration.Milliseconds()))
}

func AddRetrievedMessages(queue string, n int) {
	RetrievedMessagesTotal.WithLabelValues(queue).Add(float64(n))
}

func IncFilterEvaluation(kind string, passed bool) {
	result := "rejected"
	if passed {
		result = "passed"
	}
	FilterEvaluationsTotal.WithLabelValues(kind, result).Inc()
}

func IncCountOutcome(queue, outcome string) {
	CountOutcomesTotal.WithLabelValues(queue, outcome).Inc()
}

func SetQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

func IncQueueDepthError(queue string) {
	QueueDepthErrorsTotal.WithLabelValues(queue).Inc()
}

func IncChangeEvent(queue, kind string) {
	ChangeEventsTotal.WithLabelValues(queue, kind).Inc()
}

func IncSinkWrite(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SinkWritesTotal.WithLabelValues(sink, status).Inc()
}

func IncTransportError(operation string) {
	TransportErrorsTotal.WithLabelValues(operation).Inc()
}

func IncRetryAttempt(operation string) {
	RetryAttemptsTotal.WithLabelValues(operation).Inc()
}

func SetFunctionStats(function string, invocations, errors float64) {
	FunctionInvocations.WithLabelValues(function).Set(invocations)
	FunctionErrors.WithLabelValues(function).Set(errors)
}

func IncKafkaMessagesWritten(topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(topic).Inc()
}

func ObserveKafkaWriteDuration(topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(topic).Observe(float64(duration.Milliseconds()))
}
