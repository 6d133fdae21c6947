package cel

// FilterExpressionExamples lists expressions accepted by the cel filter kind.
var FilterExpressionExamples = map[string]string{
	"simple_equals":     `body.status == "FAILED"`,
	"numeric_compare":   `body.retries > 3`,
	"string_contains":   `body.error.contains("timeout")`,
	"in_list":           `body.status in ["FAILED", "REJECTED"]`,
	"has_field":         `has(body.description) && body.description != ""`,
	"nested_field":      `body.user.tier == "premium"`,
	"system_attribute":  `attributes.ApproximateReceiveCount != "1"`,
	"message_attribute": `has(message_attributes.source) && message_attributes.source.StringValue == "api"`,
	"queue_scoped":      `queue_name == "context dlq" && body.status == "FAILED"`,
	"by_message_id":     `message_id.startsWith("a1")`,
}
