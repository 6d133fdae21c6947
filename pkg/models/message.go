package models

import "time"

type QueueDescriptor struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// RawMessage is a message exactly as the transport returned it.
type RawMessage struct {
	ID                 string                 `json:"id"`
	ReceiptToken       string                 `json:"receipt_token"`
	Body               string                 `json:"body"`
	Checksum           string                 `json:"checksum,omitempty"`
	Attributes         map[string]string      `json:"attributes,omitempty"`
	ExtendedAttributes map[string]interface{} `json:"extended_attributes,omitempty"`
}

type FormattedMessage struct {
	QueueName          string                 `json:"queue_name" bson:"queue_name"`
	MessageID          string                 `json:"message_id" bson:"message_id"`
	ReceiptToken       string                 `json:"receipt_token,omitempty" bson:"-"`
	Body               interface{}            `json:"body" bson:"body"`
	Attributes         map[string]string      `json:"attributes" bson:"attributes"`
	ExtendedAttributes map[string]interface{} `json:"extended_attributes" bson:"extended_attributes"`
	BodyChecksum       string                 `json:"body_checksum" bson:"body_checksum"`
}

// BodyMap returns the decoded body when it is a JSON object.
func (m FormattedMessage) BodyMap() (map[string]interface{}, bool) {
	body, ok := m.Body.(map[string]interface{})
	return body, ok
}

// WithoutReceipt returns a copy safe to persist outside the process.
func (m FormattedMessage) WithoutReceipt() FormattedMessage {
	m.ReceiptToken = ""
	return m
}

type CountResult struct {
	Queue        string `json:"queue" bson:"queue"`
	Field        string `json:"field" bson:"field"`
	Value        string `json:"value" bson:"value"`
	Processed    int    `json:"processed" bson:"processed"`
	Matched      int    `json:"matched" bson:"matched"`
	JSONErrors   int    `json:"json_errors" bson:"json_errors"`
	MissingField int    `json:"missing_field" bson:"missing_field"`
	Mismatched   int    `json:"mismatched" bson:"mismatched"`
	Error        string `json:"error,omitempty" bson:"error,omitempty"`
}

type FunctionMetrics struct {
	FunctionName         string    `json:"function_name"`
	Timestamp            time.Time `json:"timestamp"`
	Status               string    `json:"status"`
	Invocations          int       `json:"invocations"`
	DurationAvg          float64   `json:"duration_avg"`
	Errors               int       `json:"errors"`
	Throttles            int       `json:"throttles"`
	ConcurrentExecutions int       `json:"concurrent_executions"`
	SuccessRate          float64   `json:"success_rate"`
	ErrorRate            float64   `json:"error_rate"`
	IsExecuting          bool      `json:"is_executing"`
	ErrorMessage         string    `json:"error_message,omitempty"`
}
