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

type DonationRepository struct {
	collection *mongo.Collection
}

func NewDonationRepository(db *mongo.Database) *DonationRepository {
	return &DonationRepository{
		collection: db.Collection(database.DonationsCollection),
	}
}

func (dr *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID.IsZero() {
		donation.ID = primitive.NewObjectID()
	}
	_, err := dr.collection.InsertOne(ctx, donation)
	return writeError(err)
}

func (dr *DonationRepository) List(ctx context.Context, limit int64) ([]models.Donation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(listLimit(limit))

	cursor, err := dr.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	donations := []models.Donation{}
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// Stats sums completed donations overall and since monthStart, and counts
// donations per status.
func (dr *DonationRepository) Stats(ctx context.Context, monthStart time.Time) (*models.DonationStats, error) {
	isCompleted := bson.M{"$eq": bson.A{"$status", models.DonationCompleted}}
	countIf := func(cond bson.M) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"totalDonations": bson.M{"$sum": 1},
			"totalAmount": bson.M{"$sum": bson.M{
				"$cond": bson.A{isCompleted, "$amount", 0},
			}},
			"monthlyAmount": bson.M{"$sum": bson.M{
				"$cond": bson.A{
					bson.M{"$and": bson.A{isCompleted, bson.M{"$gte": bson.A{"$createdAt", monthStart}}}},
					"$amount",
					0,
				},
			}},
			"completedDonations": countIf(isCompleted),
			"pendingDonations":   countIf(bson.M{"$eq": bson.A{"$status", models.DonationPending}}),
			"failedDonations":    countIf(bson.M{"$eq": bson.A{"$status", models.DonationFailed}}),
		}}},
	}

	cursor, err := dr.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := &models.DonationStats{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(stats); err != nil {
			return nil, err
		}
	}
	return stats, cursor.Err()
}
