package filtering

import (
	"fmt"
	"strings"
	"time"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	"qscope/pkg/cel"
	apperrors "qscope/pkg/errors"
)

// Spec is the declarative form of a predicate, as read from configuration
// files or command line flags.
type Spec struct {
	Kind       string `json:"kind"`
	Target     string `json:"target,omitempty"`
	Field      string `json:"field,omitempty"`
	Value      string `json:"value,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Expression string `json:"expression,omitempty"`
}

func SpecsFromConfig(filters []config.FilterConfig) []Spec {
	specs := make([]Spec, 0, len(filters))
	for _, f := range filters {
		specs = append(specs, Spec{
			Kind:       strings.ToLower(f.Kind),
			Target:     f.Target,
			Field:      f.Field,
			Value:      f.Value,
			Start:      f.Start,
			End:        f.End,
			Expression: f.Expression,
		})
	}
	return specs
}

// ParseFieldFlag splits a "name:value" flag. The value may itself contain
// colons.
func ParseFieldFlag(raw string) (Spec, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Spec{}, apperrors.ErrConfiguration.
			WithDetail("flag", "filter-field").
			WithDetail("value", raw).
			WithDetail("reason", "expected name:value")
	}
	return Spec{Kind: KindField, Field: name, Value: strings.TrimSpace(value)}, nil
}

// ParseTime reads a YYYY-MM-DD HH:MM timestamp in local time.
func ParseTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(constants.TimeWindowLayout, raw, time.Local)
	if err != nil {
		return nil, apperrors.ErrConfiguration.
			WithCause(err).
			WithDetail("value", raw).
			WithDetail("reason", "expected YYYY-MM-DD HH:MM")
	}
	return &t, nil
}

func (s Spec) Predicate(evaluator *cel.Evaluator) (Predicate, error) {
	switch s.Kind {
	case KindEmptyDescription:
		return EmptyDescription(), nil
	case KindID:
		if strings.TrimSpace(s.Target) == "" {
			return nil, apperrors.ErrConfiguration.WithDetail("kind", s.Kind).WithDetail("reason", "target is required")
		}
		return IDMatch(strings.TrimSpace(s.Target)), nil
	case KindField:
		if strings.TrimSpace(s.Field) == "" {
			return nil, apperrors.ErrConfiguration.WithDetail("kind", s.Kind).WithDetail("reason", "field is required")
		}
		return FieldEquals(strings.TrimSpace(s.Field), s.Value), nil
	case KindTimeWindow:
		start, err := ParseTime(s.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseTime(s.End)
		if err != nil {
			return nil, err
		}
		if start == nil && end == nil {
			return nil, apperrors.ErrConfiguration.WithDetail("kind", s.Kind).WithDetail("reason", "start or end is required")
		}
		return TimeWindow(start, end), nil
	case KindCEL:
		if evaluator == nil {
			var err error
			if evaluator, err = cel.NewEvaluator(); err != nil {
				return nil, apperrors.ErrInternal.WithCause(err)
			}
		}
		p, err := CELExpression(evaluator, s.Expression)
		if err != nil {
			return nil, apperrors.ErrConfiguration.WithCause(err).WithDetail("kind", s.Kind)
		}
		return p, nil
	default:
		return nil, apperrors.ErrConfiguration.WithDetail("kind", s.Kind).WithDetail("reason", fmt.Sprintf("unknown filter kind %q", s.Kind))
	}
}

// Build turns specs into a chain, preserving their order.
func Build(log logger.Logger, specs []Spec) (*Chain, error) {
	chain := NewChain(log)

	var evaluator *cel.Evaluator
	for i, s := range specs {
		if s.Kind == KindCEL && evaluator == nil {
			var err error
			if evaluator, err = cel.NewEvaluator(); err != nil {
				return nil, apperrors.ErrInternal.WithCause(err)
			}
		}
		p, err := s.Predicate(evaluator)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i+1, err)
		}
		chain.Add(p)
	}
	return chain, nil
}
