package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"qscope/internal/constants"
)

// LoadConfig reads the YAML file (when given) and layers environment variables
// on top. An empty configFile means environment-only configuration.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("aws.region", "us-east-1")
	viper.SetDefault("aws.preflight", true)
	viper.SetDefault("aws.rate_limit_rps", constants.DefaultTransportRateLimit)
	viper.SetDefault("aws.retry.max_attempts", 3)
	viper.SetDefault("aws.retry.initial_interval", "200ms")
	viper.SetDefault("aws.retry.max_interval", "5s")
	viper.SetDefault("aws.retry.multiplier", 2.0)

	viper.SetDefault("queues.dlq", defaultQueues("dlq"))
	viper.SetDefault("queues.main", defaultQueues("queue"))

	viper.SetDefault("inspection.max_messages_per_queue", constants.DefaultMaxMessagesPerQueue)
	viper.SetDefault("inspection.wait_time_seconds", constants.DefaultWaitTimeSeconds)
	viper.SetDefault("inspection.progress_every", constants.DefaultProgressEvery)

	viper.SetDefault("monitor.interval_seconds", int(constants.DefaultMonitorInterval.Seconds()))
	viper.SetDefault("monitor.log_interval_seconds", int(constants.DefaultLogInterval.Seconds()))
	viper.SetDefault("monitor.log_file_path", constants.DefaultSnapshotLogPath)

	viper.SetDefault("functions.default", []string{"context", "kamis", "validator"})
	viper.SetDefault("functions.metric_period_minutes", int(constants.DefaultMetricPeriod.Minutes()))
	viper.SetDefault("functions.interval_seconds", int(constants.DefaultFunctionInterval.Seconds()))
	viper.SetDefault("functions.log_file_path", constants.DefaultFunctionLogPath)

	viper.SetDefault("export.directory", constants.DefaultExportDir)
	viper.SetDefault("server.port", 9090)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("database.redis.key_prefix", constants.DefaultRedisKeyPrefix)
	viper.SetDefault("database.redis.events_limit", constants.DefaultRedisEventsLimit)
	viper.SetDefault("database.mongodb.database", constants.DefaultMongoDBName)
}

func defaultQueues(suffix string) []map[string]interface{} {
	services := []struct{ name, queue string }{
		{"trigger", "prd-trigger-atena-" + suffix},
		{"context", "prd-context-" + suffix},
		{"validator", "prd-validator-" + suffix},
		{"kamis", "prd-kamis-" + suffix},
	}
	queues := make([]map[string]interface{}, 0, len(services))
	for _, s := range services {
		queues = append(queues, map[string]interface{}{
			"name":       s.name + " " + suffix,
			"queue_name": s.queue,
		})
	}
	return queues
}

func bindEnvVariables() {
	viper.BindEnv("aws.region", "AWS_DEFAULT_REGION", "AWS_REGION")
	viper.BindEnv("aws.account_id", "AWS_ACCOUNT_ID")
	viper.BindEnv("aws.endpoint", "AWS_ENDPOINT_URL")

	viper.BindEnv("monitor.interval_seconds", "MONITOR_INTERVAL_SECONDS")
	viper.BindEnv("monitor.log_interval_seconds", "LOG_INTERVAL_SECONDS")
	viper.BindEnv("monitor.save_to_log", "SAVE_TO_LOG")
	viper.BindEnv("monitor.log_file_path", "LOG_FILE_PATH")

	viper.BindEnv("functions.interval_seconds", "LAMBDA_MONITOR_INTERVAL_SECONDS")
	viper.BindEnv("functions.metric_period_minutes", "LAMBDA_METRIC_PERIOD_MINUTES")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.kafka.change_topic", "BROKER_KAFKA_CHANGE_TOPIC")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.enabled", "SERVER_ENABLED")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
	viper.BindEnv("logging.file_path", "LOGGING_FILE_PATH")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokers := splitList(viper.GetString("BROKER_KAFKA_BROKERS")); len(brokers) > 0 {
		cfg.Broker.Kafka.Brokers = brokers
	}

	if functions := splitList(viper.GetString("LAMBDA_DEFAULT_FUNCTIONS")); len(functions) > 0 {
		cfg.Functions.Default = functions
	}

	if functions := splitList(viper.GetString("LAMBDA_ADDITIONAL_FUNCTIONS")); len(functions) > 0 {
		cfg.Functions.Additional = functions
	}

	if sinks := splitList(viper.GetString("MONITOR_SINKS")); len(sinks) > 0 {
		cfg.Monitor.Sinks = sinks
	}

	for i := range cfg.Queues.DLQ {
		overrideQueueName(&cfg.Queues.DLQ[i])
	}
	for i := range cfg.Queues.Main {
		overrideQueueName(&cfg.Queues.Main[i])
	}

	return nil
}

// overrideQueueName lets SQS_<FRIENDLY_NAME>_NAME replace a configured queue
// name, e.g. SQS_TRIGGER_DLQ_NAME for the queue named "trigger dlq".
func overrideQueueName(q *QueueConfig) {
	key := "SQS_" + envKey(q.Name) + "_NAME"
	if name := strings.TrimSpace(viper.GetString(key)); name != "" {
		q.QueueName = name
		q.URL = ""
	}
}

func envKey(name string) string {
	replacer := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(name)))
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
