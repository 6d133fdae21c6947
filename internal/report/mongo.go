package report

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"qscope/internal/constants"
	"qscope/internal/functions"
	apperrors "qscope/pkg/errors"
)

const (
	kindFiltered = "filtered"
	kindCount    = "count"
	kindLogs     = "logs"
)

// MongoExporter stores each export as one document tagged with its kind.
type MongoExporter struct {
	collection *mongo.Collection
}

func NewMongoExporter(db *mongo.Database) *MongoExporter {
	return &MongoExporter{collection: db.Collection(constants.CollectionExports)}
}

func (e *MongoExporter) Name() string { return "mongodb" }

func (e *MongoExporter) ExportFiltered(ctx context.Context, exp FilteredExport) (string, error) {
	if exp.Empty() {
		return "", apperrors.ErrValidation.WithDetail("message", "no filtered results to export")
	}
	return e.insert(ctx, bson.M{
		"kind":       kindFiltered,
		"run_id":     exp.Metadata.RunID,
		"created_at": exp.Metadata.ExportTimestamp,
		"metadata":   exp.Metadata,
		"results":    exp.Results,
	})
}

func (e *MongoExporter) ExportCount(ctx context.Context, exp CountExport) (string, error) {
	return e.insert(ctx, bson.M{
		"kind":       kindCount,
		"run_id":     exp.RunID,
		"created_at": exp.ExportTimestamp,
		"field":      exp.Field,
		"value":      exp.Value,
		"results":    exp.Results,
		"total":      exp.TotalMatched,
	})
}

func (e *MongoExporter) ExportLogs(ctx context.Context, r functions.LogReport) (string, error) {
	return e.insert(ctx, bson.M{
		"kind":       kindLogs,
		"created_at": r.Metadata.GeneratedAt,
		"query":      r.Metadata.QueryParameters,
		"summary":    r.Metadata.Summary,
		"functions":  r.Functions,
	})
}

func (e *MongoExporter) insert(ctx context.Context, doc bson.M) (string, error) {
	res, err := e.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", apperrors.ErrUnavailable.WithCause(err).WithDetail("collection", e.collection.Name())
	}
	id := fmt.Sprint(res.InsertedID)
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	return e.collection.Name() + "/" + id, nil
}
