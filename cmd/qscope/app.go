package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/inspection"
	"qscope/internal/logger"
	"qscope/internal/report"
	"qscope/internal/transport"
	"qscope/pkg/bootstrap"
	"qscope/pkg/circuitbreaker"
	"qscope/pkg/health"
	"qscope/pkg/metrics"
	"qscope/pkg/middleware"
	"qscope/pkg/ratelimit"
	"qscope/pkg/tracing"
)

// App owns every connection a command may need. Each command initializes
// only what it uses.
type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	transport      *transport.SQSTransport
	redis          *redis.Client
	mongoClient    *mongo.Client
	mongoDB        *mongo.Database
	tracerProvider *tracing.TracerProvider
	limiter        *ratelimit.ClientLimiter
	command        string
}

func NewApp(command string, cfg *config.Config, log logger.Logger) *App {
	return &App{
		command:     command,
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) initTracing() error {
	tp, err := tracing.Init(a.Config.Tracing, a.command)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp
	return nil
}

// initTransport loads AWS credentials and builds the SQS transport. With
// preflight enabled an unreachable transport is fatal before any queue is
// touched.
func (a *App) initTransport(ctx context.Context) error {
	if err := a.InitAWS(ctx); err != nil {
		return err
	}
	a.transport = transport.NewSQS(a.AWS, a.Config.AWS, a.Logger)

	if a.Config.AWS.Preflight {
		if err := a.transport.Ping(ctx); err != nil {
			return fmt.Errorf("transport preflight failed: %w", err)
		}
		a.Logger.DebugwCtx(ctx, "Transport preflight passed")
	}
	return nil
}

func (a *App) initStorage(ctx context.Context, needRedis, needMongo bool) error {
	if needRedis {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redis = rdb
	}
	if needMongo {
		client, db, err := a.dbConnector.InitMongoDB(ctx)
		if err != nil {
			return err
		}
		a.mongoClient = client
		a.mongoDB = db
	}
	return nil
}

func (a *App) inspector() *inspection.Inspector {
	retriever := inspection.NewRetriever(a.transport, a.Config.Inspection, a.Logger)
	counter := inspection.NewCounter(retriever, a.Config.Inspection, a.Logger)
	return inspection.NewInspector(a.Config, retriever, counter, a.Logger)
}

func (a *App) exporters(toMongo bool) []report.Exporter {
	exporters := []report.Exporter{report.NewFileExporter(a.Config.Export.Directory)}
	if (toMongo || a.Config.Export.ToMongo) && a.mongoDB != nil {
		exporters = append(exporters, report.NewMongoExporter(a.mongoDB))
	}
	return exporters
}

func (a *App) functionClients() (*lambda.Client, *cloudwatch.Client) {
	endpoint := a.Config.AWS.Endpoint
	lc := lambda.NewFromConfig(a.AWS, func(o *lambda.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	cw := cloudwatch.NewFromConfig(a.AWS, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return lc, cw
}

func (a *App) logsClient() *cloudwatchlogs.Client {
	endpoint := a.Config.AWS.Endpoint
	return cloudwatchlogs.NewFromConfig(a.AWS, func(o *cloudwatchlogs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (a *App) breakerSet(name string) *circuitbreaker.Set {
	cb := a.Config.CircuitBreaker
	tmpl := circuitbreaker.DefaultConfig(name)
	if !cb.Enabled {
		return circuitbreaker.NewSet(tmpl)
	}
	if cb.MaxRequests > 0 {
		tmpl.MaxRequests = cb.MaxRequests
	}
	if cb.Interval > 0 {
		tmpl.Interval = cb.Interval
	}
	if cb.Timeout > 0 {
		tmpl.Timeout = cb.Timeout
	}
	if cb.FailureRatio > 0 {
		tmpl.FailureRatio = cb.FailureRatio
	}
	if cb.MinRequests > 0 {
		tmpl.MinRequests = cb.MinRequests
	}
	return circuitbreaker.NewSet(tmpl)
}

// httpServer serves /metrics and /health. It is nil when the server is
// disabled.
func (a *App) httpServer() *http.Server {
	if !a.Config.Server.Enabled {
		return nil
	}
	metrics.RegisterAll()

	registry := health.NewCheckerRegistry()
	if a.transport != nil {
		registry.Register(health.PingChecker("sqs", a.transport))
	}
	if a.redis != nil {
		registry.RegisterOptional(health.RedisChecker(a.redis))
	}
	if a.mongoClient != nil {
		registry.RegisterOptional(health.MongoDBChecker(a.mongoClient))
	}

	a.limiter = ratelimit.NewClientLimiter(ratelimit.DefaultConfig())

	mux := http.NewServeMux()
	mux.Handle("/health", a.limiter.Middleware(tracing.HTTPHandler(health.Handler(registry), "health")))
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr: fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID(),
			middleware.Logger(a.Logger),
			middleware.Recovery(a.Logger),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	return a.Shutdown(ctx, func(ctx context.Context) error {
		return errors.Join(
			a.dbConnector.ShutdownDatabases(ctx, a.redis, a.mongoClient),
			a.tracerProvider.Shutdown(ctx),
		)
	})
}
