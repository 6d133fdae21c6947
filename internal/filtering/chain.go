package filtering

import (
	"qscope/internal/logger"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
)

// Chain is an ordered conjunction of predicates. An empty chain keeps every
// message.
type Chain struct {
	predicates []Predicate
	logger     logger.Logger
}

func NewChain(log logger.Logger, predicates ...Predicate) *Chain {
	if log == nil {
		log = logger.NopLogger()
	}
	c := &Chain{logger: log}
	for _, p := range predicates {
		c.Add(p)
	}
	return c
}

func (c *Chain) Add(p Predicate) {
	if p == nil {
		return
	}
	c.predicates = append(c.predicates, p)
}

func (c *Chain) Len() int {
	return len(c.predicates)
}

func (c *Chain) Descriptions() []string {
	out := make([]string, 0, len(c.predicates))
	for _, p := range c.predicates {
		out = append(out, p.Description())
	}
	return out
}

// Matches evaluates predicates in order and stops at the first rejection.
func (c *Chain) Matches(msg models.FormattedMessage) bool {
	for _, p := range c.predicates {
		passed := p.Evaluate(msg)
		metrics.IncFilterEvaluation(p.Kind(), passed)
		if !passed {
			c.logger.Debugw("Predicate rejected message",
				"queue_name", msg.QueueName,
				"message_id", msg.MessageID,
				"kind", p.Kind(),
			)
			return false
		}
	}
	return true
}

// Apply returns the messages that satisfy every predicate, in input order.
func (c *Chain) Apply(messages []models.FormattedMessage) []models.FormattedMessage {
	if len(c.predicates) == 0 {
		return messages
	}

	kept := make([]models.FormattedMessage, 0, len(messages))
	for _, msg := range messages {
		if c.Matches(msg) {
			kept = append(kept, msg)
		}
	}
	return kept
}
