package cel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Input is the set of variables a message filter expression can see.
type Input struct {
	Body              interface{}
	Attributes        map[string]string
	MessageAttributes map[string]interface{}
	MessageID         string
	QueueName         string
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("body", cel.DynType),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("message_attributes", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("message_id", cel.StringType),
		cel.Variable("queue_name", cel.StringType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	_, err := e.Compile(expression)
	return err
}

// Program is a compiled boolean filter expression, reusable across messages.
type Program struct {
	expression string
	program    cel.Program
}

func (e *Evaluator) Compile(expression string) (*Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Program{expression: expression, program: program}, nil
}

func (p *Program) Expression() string {
	return p.expression
}

func (p *Program) Matches(ctx context.Context, in Input) (bool, error) {
	attributes := in.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	messageAttributes := in.MessageAttributes
	if messageAttributes == nil {
		messageAttributes = map[string]interface{}{}
	}

	vars := map[string]interface{}{
		"body":               Normalize(in.Body),
		"attributes":         attributes,
		"message_attributes": Normalize(messageAttributes),
		"message_id":         in.MessageID,
		"queue_name":         in.QueueName,
	}

	result, _, err := p.program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

// Normalize converts decoded JSON values into types CEL understands natively.
// json.Number becomes int64 when integral, float64 otherwise.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}
