package config

import (
	"time"
)

type Config struct {
	AWS            AWSConfig
	Queues         QueuesConfig
	Inspection     InspectionConfig
	Filters        []FilterConfig `mapstructure:"filters"`
	Monitor        MonitorConfig
	Functions      FunctionsConfig
	Export         ExportConfig
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig
}

type AWSConfig struct {
	Region       string      `mapstructure:"region"`
	AccountID    string      `mapstructure:"account_id"`
	Endpoint     string      `mapstructure:"endpoint"` // LocalStack or other SQS-compatible endpoint
	Preflight    bool        `mapstructure:"preflight"`
	RateLimitRPS float64     `mapstructure:"rate_limit_rps"`
	Retry        RetryConfig `mapstructure:"retry"`
}

type QueuesConfig struct {
	DLQ  []QueueConfig `mapstructure:"dlq"`
	Main []QueueConfig `mapstructure:"main"`
}

type QueueConfig struct {
	Name      string `mapstructure:"name"`
	QueueName string `mapstructure:"queue_name"`
	URL       string `mapstructure:"url"`
}

type InspectionConfig struct {
	MaxMessagesPerQueue int `mapstructure:"max_messages_per_queue"`
	WaitTimeSeconds     int `mapstructure:"wait_time_seconds"`
	ProgressEvery       int `mapstructure:"progress_every"`
}

// FilterConfig is the YAML form of a filter predicate. Kind selects which of
// the remaining fields apply.
type FilterConfig struct {
	Kind       string `mapstructure:"kind"`
	Target     string `mapstructure:"target"`
	Field      string `mapstructure:"field"`
	Value      string `mapstructure:"value"`
	Start      string `mapstructure:"start"`
	End        string `mapstructure:"end"`
	Expression string `mapstructure:"expression"`
}

type MonitorConfig struct {
	IntervalSeconds    int      `mapstructure:"interval_seconds"`
	LogIntervalSeconds int      `mapstructure:"log_interval_seconds"`
	SaveToLog          bool     `mapstructure:"save_to_log"`
	LogFilePath        string   `mapstructure:"log_file_path"`
	Sinks              []string `mapstructure:"sinks"`
}

type FunctionsConfig struct {
	Default             []string `mapstructure:"default"`
	Additional          []string `mapstructure:"additional"`
	MetricPeriodMinutes int      `mapstructure:"metric_period_minutes"`
	IntervalSeconds     int      `mapstructure:"interval_seconds"`
	SaveToLog           bool     `mapstructure:"save_to_log"`
	LogFilePath         string   `mapstructure:"log_file_path"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
	ToMongo   bool   `mapstructure:"to_mongo"`
}

type ServerConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Redis   RedisConfig
	MongoDB MongoDBConfig
}

type RedisConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	TTLSeconds  int    `mapstructure:"ttl_seconds"`
	KeyPrefix   string `mapstructure:"key_prefix"`
	EventsLimit int    `mapstructure:"events_limit"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	ChangeTopic string   `mapstructure:"change_topic"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	FilePath string `mapstructure:"file_path"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
