package repositories

import (
	"context"
	"time"

	"disasterguardian/database"
	"disasterguardian/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SmsLogRepository struct {
	collection *mongo.Collection
}

func NewSmsLogRepository(db *mongo.Database) *SmsLogRepository {
	return &SmsLogRepository{
		collection: db.Collection(database.SmsLogsCollection),
	}
}

func (sr *SmsLogRepository) Create(ctx context.Context, log *models.SmsLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := sr.collection.InsertOne(ctx, log)
	return err
}

func (sr *SmsLogRepository) List(ctx context.Context, incidentID *primitive.ObjectID, limit int64) ([]models.SmsLog, error) {
	filter := bson.M{}
	if incidentID != nil {
		filter["incidentId"] = *incidentID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(listLimit(limit))

	cursor, err := sr.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.SmsLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (sr *SmsLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := sr.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
