package monitor

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"qscope/internal/constants"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

// MongoSink appends change events to a collection. Snapshots without events
// write nothing.
type MongoSink struct {
	collection *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{collection: db.Collection(constants.CollectionChangeEvents)}
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Record(ctx context.Context, _ models.QueueSnapshot, events []models.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		docs = append(docs, e)
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return apperrors.ErrUnavailable.WithCause(err).WithDetail("sink", s.Name())
	}
	return nil
}

// Close leaves the shared client to its owner.
func (s *MongoSink) Close() error {
	return nil
}
