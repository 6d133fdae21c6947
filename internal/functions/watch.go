package functions

import (
	"context"
	"io"
	"time"

	"qscope/internal/constants"
	"qscope/internal/logger"
)

// Watch collects and prints a report every interval until ctx ends. A nil
// metricsLog disables file output.
func Watch(ctx context.Context, c *Collector, names []string, interval time.Duration, out io.Writer, metricsLog *MetricsLog, log logger.Logger) error {
	if interval <= 0 {
		interval = constants.DefaultFunctionInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report := c.CollectAll(ctx, names)
		RenderReport(out, report)
		if metricsLog != nil {
			if err := metricsLog.Append(report); err != nil {
				log.WarnwCtx(ctx, "Failed to append function metrics log", "path", metricsLog.Path(), "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
