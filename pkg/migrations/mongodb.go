package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qscope/internal/constants"
)

// Indexes lists the indexes each collection needs, keyed by collection name.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		constants.CollectionChangeEvents: {
			{
				Keys:    bson.D{{Key: "queue_name", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_change_events_queue_timestamp"),
			},
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_change_events_timestamp"),
			},
		},
		constants.CollectionExports: {
			{
				Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_exports_kind_created_at"),
			},
			{
				Keys:    bson.D{{Key: "run_id", Value: 1}},
				Options: options.Index().SetName("idx_exports_run_id"),
			},
		},
	}
}

// EnsureMongoIndexes creates missing indexes. Collections are created on
// first insert.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for name, indexes := range Indexes() {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, indexes)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
