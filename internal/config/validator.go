package config

import (
	"fmt"
	"strings"
	"time"

	"qscope/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateAWS(cfg.AWS, cfg.Queues); err != nil {
		errors = append(errors, err)
	}

	if err := validateQueues(cfg.Queues); err != nil {
		errors = append(errors, err)
	}

	if err := validateInspection(cfg.Inspection); err != nil {
		errors = append(errors, err)
	}

	if err := validateFilters(cfg.Filters); err != nil {
		errors = append(errors, err)
	}

	if err := validateMonitor(cfg.Monitor, cfg); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateAWS(cfg AWSConfig, queues QueuesConfig) error {
	if cfg.Region == "" {
		return &ValidationError{
			Field:   "aws.region",
			Message: "AWS region is required",
		}
	}

	needsAccount := false
	for _, q := range append(append([]QueueConfig{}, queues.DLQ...), queues.Main...) {
		if q.URL == "" {
			needsAccount = true
			break
		}
	}
	if needsAccount && cfg.AccountID == "" {
		return &ValidationError{
			Field:   "aws.account_id",
			Message: "account ID is required to build queue URLs from queue names",
		}
	}

	if cfg.RateLimitRPS < 0 {
		return &ValidationError{
			Field:   "aws.rate_limit_rps",
			Message: "rate limit must be non-negative",
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "aws.retry.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return &ValidationError{
			Field:   "aws.retry.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	return nil
}

func validateQueues(cfg QueuesConfig) error {
	seen := make(map[string]bool)
	all := append(append([]QueueConfig{}, cfg.DLQ...), cfg.Main...)

	for i, q := range all {
		if strings.TrimSpace(q.Name) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("queues[%d].name", i),
				Message: "queue friendly name cannot be empty",
			}
		}

		key := strings.ToLower(q.Name)
		if seen[key] {
			return &ValidationError{
				Field:   fmt.Sprintf("queues[%d].name", i),
				Message: fmt.Sprintf("duplicate queue name: %s", q.Name),
			}
		}
		seen[key] = true

		if q.URL == "" && q.QueueName == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("queues[%d]", i),
				Message: fmt.Sprintf("queue %s needs either url or queue_name", q.Name),
			}
		}

		if q.URL != "" && !strings.HasPrefix(q.URL, "https://") && !strings.HasPrefix(q.URL, "http://") {
			return &ValidationError{
				Field:   fmt.Sprintf("queues[%d].url", i),
				Message: "queue URL must start with https:// or http://",
			}
		}
	}

	return nil
}

func validateInspection(cfg InspectionConfig) error {
	if cfg.MaxMessagesPerQueue < 0 {
		return &ValidationError{
			Field:   "inspection.max_messages_per_queue",
			Message: "must be non-negative",
		}
	}

	if cfg.WaitTimeSeconds < 0 || cfg.WaitTimeSeconds > 20 {
		return &ValidationError{
			Field:   "inspection.wait_time_seconds",
			Message: fmt.Sprintf("wait time must be between 0 and 20 seconds, got %d", cfg.WaitTimeSeconds),
		}
	}

	if cfg.ProgressEvery < 0 {
		return &ValidationError{
			Field:   "inspection.progress_every",
			Message: "must be non-negative",
		}
	}

	return nil
}

func validateFilters(filters []FilterConfig) error {
	validKinds := map[string]bool{
		"empty_description": true, "id": true, "field": true, "time_window": true, "cel": true,
	}

	for i, f := range filters {
		field := fmt.Sprintf("filters[%d]", i)
		kind := strings.ToLower(f.Kind)

		if !validKinds[kind] {
			return &ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown filter kind: %s (valid: empty_description, id, field, time_window, cel)", f.Kind),
			}
		}

		switch kind {
		case "id":
			if f.Target == "" {
				return &ValidationError{Field: field + ".target", Message: "id filter requires a target"}
			}
		case "field":
			if f.Field == "" {
				return &ValidationError{Field: field + ".field", Message: "field filter requires a field name"}
			}
		case "time_window":
			if f.Start == "" && f.End == "" {
				return &ValidationError{Field: field, Message: "time_window filter requires start or end"}
			}
			for _, v := range []string{f.Start, f.End} {
				if v == "" {
					continue
				}
				if _, err := time.ParseInLocation(constants.TimeWindowLayout, v, time.Local); err != nil {
					return &ValidationError{
						Field:   field,
						Message: fmt.Sprintf("invalid time %q, expected YYYY-MM-DD HH:MM", v),
					}
				}
			}
		case "cel":
			if strings.TrimSpace(f.Expression) == "" {
				return &ValidationError{Field: field + ".expression", Message: "cel filter requires an expression"}
			}
		}
	}

	return nil
}

func validateMonitor(cfg MonitorConfig, root *Config) error {
	if cfg.IntervalSeconds < 0 {
		return &ValidationError{
			Field:   "monitor.interval_seconds",
			Message: "interval must be non-negative",
		}
	}

	for _, sink := range cfg.Sinks {
		switch strings.ToLower(sink) {
		case "redis":
			if root.Database.Redis.Host == "" {
				return &ValidationError{Field: "monitor.sinks", Message: "redis sink requires database.redis.host"}
			}
		case "mongodb":
			if root.Database.MongoDB.URI == "" {
				return &ValidationError{Field: "monitor.sinks", Message: "mongodb sink requires database.mongodb.uri"}
			}
		case "kafka":
			if root.Broker.Type != "kafka" {
				return &ValidationError{Field: "monitor.sinks", Message: "kafka sink requires broker.type kafka"}
			}
		default:
			return &ValidationError{
				Field:   "monitor.sinks",
				Message: fmt.Sprintf("unknown sink: %s (valid: redis, mongodb, kafka)", sink),
			}
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Redis.Host != "" {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.TTLSeconds < 0 {
		return &ValidationError{
			Field:   "database.redis.ttl_seconds",
			Message: "TTL must be non-negative",
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case "":
		return nil
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return &ValidationError{
				Field:   "broker.kafka.brokers",
				Message: "at least one Kafka broker is required",
			}
		}
		for i, broker := range cfg.Kafka.Brokers {
			if broker == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
					Message: "broker address cannot be empty",
				}
			}
		}
		if cfg.Kafka.ChangeTopic == "" {
			return &ValidationError{
				Field:   "broker.kafka.change_topic",
				Message: "change topic is required",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}
