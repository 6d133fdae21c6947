package constants

import "time"

const (
	// MaxBatchSize is the transport's hard cap on messages per receive call.
	MaxBatchSize           = 10
	DefaultWaitTimeSeconds = 1
	DefaultProgressEvery   = 50
)

const (
	DefaultMaxMessagesPerQueue = 10
	MinMaxMessagesPerQueue     = 1
	MaxMaxMessagesPerQueue     = 100
)

const (
	ReceiptDisplayLength = 50
	ReceiptEllipsis      = "..."
)

const (
	SentTimestampAttribute = "SentTimestamp"
	DepthAttribute         = "ApproximateNumberOfMessages"
	TimeWindowLayout       = "2006-01-02 15:04"
)

const (
	DefaultMonitorInterval    = 10 * time.Second
	DefaultLogInterval        = 60 * time.Second
	DefaultMetricPeriod       = 5 * time.Minute
	DefaultFunctionInterval   = 10 * time.Second
	DefaultLogsHoursBack      = 4
	FunctionMetricStatPeriod  = 60
	DefaultSnapshotLogPath    = "sqs_monitoring.log"
	DefaultFunctionLogPath    = "lambda_monitoring.log"
	DefaultExportDir          = "."
	DefaultRedisKeyPrefix     = "qscope:"
	DefaultRedisEventsLimit   = 1000
	DefaultMongoDBName        = "qscope"
	CollectionChangeEvents    = "queue_change_events"
	CollectionExports         = "inspection_exports"
	DLQNameMarker             = "dlq"
	KafkaBatchTimeout         = 10 * time.Millisecond
	KafkaWriteTimeout         = 10 * time.Second
	HealthCheckTimeout        = 5 * time.Second
	ShutdownTimeout           = 5 * time.Second
	StorageConnectTimeout     = 10 * time.Second
	DefaultTransportRateLimit = 20.0
)

const (
	ServiceName = "qscope"
)
