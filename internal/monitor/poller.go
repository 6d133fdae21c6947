package monitor

import (
	"context"
	"fmt"

	"qscope/internal/logger"
	"qscope/internal/transport"
	"qscope/pkg/circuitbreaker"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
	"qscope/pkg/tracing"
)

// Poller reads the approximate depth of each queue. Every endpoint has its
// own circuit breaker so a dead queue stops costing a call per tick.
type Poller struct {
	transport transport.Transport
	breakers  *circuitbreaker.Set
	logger    logger.Logger
}

func NewPoller(t transport.Transport, breakers *circuitbreaker.Set, log logger.Logger) *Poller {
	if breakers == nil {
		breakers = circuitbreaker.NewSet(circuitbreaker.DefaultConfig("depth"))
	}
	return &Poller{
		transport: t,
		breakers:  breakers,
		logger:    log,
	}
}

// Poll returns one entry per queue. Failed reads become error sentinels.
func (p *Poller) Poll(ctx context.Context, queues []models.QueueDescriptor) models.QueueSnapshot {
	ctx, span := tracing.StartSpan(ctx, "qscope-monitor", "monitor.poll")
	defer span.End()

	snapshot := make(models.QueueSnapshot, len(queues))
	for _, q := range queues {
		var depth int
		err := p.breakers.Get("depth:"+q.Name).Do(ctx, func(ctx context.Context) error {
			var err error
			depth, err = p.transport.Depth(ctx, q.Endpoint)
			return err
		})
		if err != nil {
			metrics.IncQueueDepthError(q.Name)
			p.logger.WarnwCtx(ctx, "Failed to read queue depth",
				"queue_name", q.Name,
				"endpoint", q.Endpoint,
				"error", err,
			)
			snapshot[q.Name] = models.QueueDepth{Err: fmt.Sprintf("error: %v", err)}
			continue
		}

		metrics.SetQueueDepth(q.Name, depth)
		snapshot[q.Name] = models.QueueDepth{Count: depth}
	}
	return snapshot
}
