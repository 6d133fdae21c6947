package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"qscope/internal/monitor"
	"qscope/pkg/metrics"
)

func watchCmd() *cobra.Command {
	var (
		interval  int
		saveToLog bool
		dlqOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch queue depths and report changes",
		Long: "Poll the approximate depth of every configured queue, print a table each tick and emit change events " +
			"to the configured sinks (redis, mongodb, kafka). Depth reads do not receive messages. Stops on Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer log.Sync()

			if cmd.Flags().Changed("interval") {
				cfg.Monitor.IntervalSeconds = interval
			}
			if cmd.Flags().Changed("save-log") {
				cfg.Monitor.SaveToLog = saveToLog
			}

			app := NewApp(cmd.CommandPath(), cfg, log)
			defer app.Close()
			if err := app.initTracing(); err != nil {
				return err
			}
			if err := app.initTransport(ctx); err != nil {
				return err
			}

			sinks, err := app.sinks(ctx)
			if err != nil {
				return err
			}
			defer sinks.Close()
			metrics.RegisterAll()

			queues := cfg.AllQueues()
			if dlqOnly {
				queues = cfg.DLQs()
			}

			opts := monitor.WatcherOptions{
				Interval: time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,
				Out:      cmd.OutOrStdout(),
			}
			if cfg.Monitor.SaveToLog {
				opts.Log = monitor.NewSnapshotLog(cfg.Monitor.LogFilePath, time.Duration(cfg.Monitor.LogIntervalSeconds)*time.Second)
			}
			poller := monitor.NewPoller(app.transport, app.breakerSet("depth"), log)
			watcher := monitor.NewWatcher(poller, sinks, queues, opts, log)

			g, gCtx := errgroup.WithContext(ctx)
			if server := app.httpServer(); server != nil {
				g.Go(func() error {
					log.InfowCtx(gCtx, "HTTP server starting", "port", cfg.Server.Port)
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("HTTP server error: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					app.limiter.RunCleanup(gCtx)
					return nil
				})
				g.Go(func() error {
					<-gCtx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				})
			}
			g.Go(func() error {
				return watcher.Run(gCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 10, "Seconds between polls")
	cmd.Flags().BoolVar(&saveToLog, "save-log", false, "Append snapshots to the monitor log file")
	cmd.Flags().BoolVar(&dlqOnly, "dlq-only", false, "Watch only dead-letter queues")
	return cmd
}

// sinks builds the configured event sinks. Connection failures are fatal so
// a misconfigured sink is noticed at startup rather than silently skipped.
func (a *App) sinks(ctx context.Context) (*monitor.Fanout, error) {
	var needRedis, needMongo, needKafka bool
	for _, s := range a.Config.Monitor.Sinks {
		switch strings.ToLower(s) {
		case "redis":
			needRedis = true
		case "mongodb":
			needMongo = true
		case "kafka":
			needKafka = true
		}
	}
	if err := a.initStorage(ctx, needRedis, needMongo); err != nil {
		return nil, err
	}

	var list []monitor.EventSink
	if needRedis && a.redis != nil {
		list = append(list, monitor.NewRedisSink(a.redis, a.Config.Database.Redis))
	}
	if needMongo && a.mongoDB != nil {
		list = append(list, monitor.NewMongoSink(a.mongoDB))
	}
	if needKafka {
		if err := a.InitBroker(); err != nil {
			return nil, err
		}
		if a.Producer != nil {
			list = append(list, monitor.NewKafkaSink(a.Producer, a.Config.Broker.Kafka.ChangeTopic))
		}
	}
	return monitor.NewFanout(a.Logger, list...), nil
}
