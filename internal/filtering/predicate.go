package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"qscope/internal/constants"
	"qscope/pkg/cel"
	"qscope/pkg/compare"
	"qscope/pkg/models"
)

const (
	KindEmptyDescription = "empty_description"
	KindID               = "id"
	KindField            = "field"
	KindTimeWindow       = "time_window"
	KindCEL              = "cel"
)

// IDFields are the body fields an id predicate inspects, in order.
var IDFields = []string{"id", "messageId", "requestId", "userId", "itemId"}

type Predicate interface {
	Kind() string
	Description() string
	Evaluate(msg models.FormattedMessage) bool
}

type emptyDescription struct{}

func EmptyDescription() Predicate {
	return emptyDescription{}
}

func (emptyDescription) Kind() string { return KindEmptyDescription }

func (emptyDescription) Description() string {
	return "messages with an empty 'description' field"
}

func (emptyDescription) Evaluate(msg models.FormattedMessage) bool {
	body, ok := msg.BodyMap()
	if !ok {
		return false
	}
	description, present := body["description"]
	if !present || description == nil {
		return true
	}
	s, isString := description.(string)
	return isString && s == ""
}

type idMatch struct {
	target string
}

func IDMatch(target string) Predicate {
	return idMatch{target: target}
}

func (p idMatch) Kind() string { return KindID }

func (p idMatch) Description() string {
	return fmt.Sprintf("messages with ID '%s'", p.target)
}

func (p idMatch) Evaluate(msg models.FormattedMessage) bool {
	body, ok := msg.BodyMap()
	if !ok {
		return false
	}
	for _, field := range IDFields {
		value, present := body[field]
		if !present {
			continue
		}
		if compare.Equals(value, p.target) {
			return true
		}
	}
	return false
}

type fieldEquals struct {
	field string
	value string
}

// FieldEquals matches when the body field, rendered as text, is exactly value.
// An absent field renders as the empty string.
func FieldEquals(field, value string) Predicate {
	return fieldEquals{field: field, value: value}
}

func (p fieldEquals) Kind() string { return KindField }

func (p fieldEquals) Description() string {
	return fmt.Sprintf("messages where field '%s' = '%s'", p.field, p.value)
}

func (p fieldEquals) Evaluate(msg models.FormattedMessage) bool {
	body, ok := msg.BodyMap()
	if !ok {
		return false
	}
	return compare.Stringify(body[p.field]) == p.value
}

type timeWindow struct {
	start *time.Time
	end   *time.Time
}

// TimeWindow keeps messages sent within [start, end]. Either bound may be nil.
// Messages without a readable SentTimestamp always pass.
func TimeWindow(start, end *time.Time) Predicate {
	return timeWindow{start: start, end: end}
}

func (p timeWindow) Kind() string { return KindTimeWindow }

func (p timeWindow) Description() string {
	from, to := "start", "end"
	if p.start != nil {
		from = p.start.Format(constants.TimeWindowLayout)
	}
	if p.end != nil {
		to = p.end.Format(constants.TimeWindowLayout)
	}
	return fmt.Sprintf("messages between %s and %s", from, to)
}

func (p timeWindow) Evaluate(msg models.FormattedMessage) bool {
	raw := strings.TrimSpace(msg.Attributes[constants.SentTimestampAttribute])
	if raw == "" {
		return true
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	sent := time.UnixMilli(millis)

	if p.start != nil && sent.Before(*p.start) {
		return false
	}
	if p.end != nil && sent.After(*p.end) {
		return false
	}
	return true
}

type celExpression struct {
	program *cel.Program
}

// CELExpression compiles expression once. Evaluation errors count as no match.
func CELExpression(evaluator *cel.Evaluator, expression string) (Predicate, error) {
	program, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	return celExpression{program: program}, nil
}

func (p celExpression) Kind() string { return KindCEL }

func (p celExpression) Description() string {
	return fmt.Sprintf("messages matching CEL '%s'", p.program.Expression())
}

func (p celExpression) Evaluate(msg models.FormattedMessage) bool {
	matched, err := p.program.Matches(context.Background(), cel.Input{
		Body:              msg.Body,
		Attributes:        msg.Attributes,
		MessageAttributes: msg.ExtendedAttributes,
		MessageID:         msg.MessageID,
		QueueName:         msg.QueueName,
	})
	return err == nil && matched
}
