package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	"qscope/pkg/migrations"
)

// DatabaseConnector opens the optional stores used by sinks and exporters.
// Each Init method returns a nil client when its store is not configured.
type DatabaseConnector struct {
	cfg config.DatabaseConfig
	log logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{cfg: cfg.Database, log: log}
}

func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	rc := dc.cfg.Redis
	if rc.Host == "" {
		return nil, nil
	}

	addr := net.JoinHostPort(rc.Host, strconv.Itoa(rc.Port))
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    rc.Password,
		DB:          rc.DB,
		DialTimeout: constants.StorageConnectTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, constants.StorageConnectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	dc.log.Infow("Redis connected", "addr", addr, "db", rc.DB)
	return rdb, nil
}

// InitMongoDB connects and ensures the indexes used by the change-event and
// export collections.
func (dc *DatabaseConnector) InitMongoDB(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	mc := dc.cfg.MongoDB
	if mc.URI == "" {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StorageConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(mc.URI).
		SetConnectTimeout(constants.StorageConnectTimeout).
		SetAppName(constants.ServiceName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	db := client.Database(mc.Database)
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	if err := migrations.EnsureMongoIndexes(ctx, db); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	dc.log.Infow("MongoDB connected", "database", mc.Database)
	return client, db, nil
}

// ShutdownDatabases closes whichever clients are non-nil.
func (dc *DatabaseConnector) ShutdownDatabases(ctx context.Context, rdb *redis.Client, mc *mongo.Client) error {
	var errs []error
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if mc != nil {
		if err := mc.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}
	return errors.Join(errs...)
}
