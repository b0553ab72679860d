package repositories

import (
	"context"
	"errors"

	"disasterguardian/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultListLimit = 500

// findOne decodes a single document, mapping "no documents" to ErrNotFound
func findOne(ctx context.Context, col *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOneOptions) error {
	err := col.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrNotFound
	}
	return err
}

func writeError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	return err
}

func listLimit(limit int64) int64 {
	if limit <= 0 || limit > defaultListLimit {
		return defaultListLimit
	}
	return limit
}
