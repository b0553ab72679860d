package repositories

import (
	"context"

	"disasterguardian/database"
	"disasterguardian/interfaces"
	"disasterguardian/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VolunteerRepository struct {
	collection *mongo.Collection
}

func NewVolunteerRepository(db *mongo.Database) *VolunteerRepository {
	return &VolunteerRepository{
		collection: db.Collection(database.VolunteersCollection),
	}
}

func (vr *VolunteerRepository) Create(ctx context.Context, profile *models.VolunteerProfile) error {
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	_, err := vr.collection.InsertOne(ctx, profile)
	return writeError(err)
}

func (vr *VolunteerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	if err := findOne(ctx, vr.collection, bson.M{"_id": id}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (vr *VolunteerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.VolunteerProfile, error) {
	var profile models.VolunteerProfile
	if err := findOne(ctx, vr.collection, bson.M{"userId": userID}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (vr *VolunteerRepository) List(ctx context.Context, status models.VolunteerStatus) ([]models.VolunteerProfile, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "appliedAt", Value: -1}}).
		SetLimit(defaultListLimit)

	cursor, err := vr.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []models.VolunteerProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (vr *VolunteerRepository) Update(ctx context.Context, profile *models.VolunteerProfile) error {
	result, err := vr.collection.UpdateOne(ctx,
		bson.M{"_id": profile.ID},
		bson.M{"$set": bson.M{
			"governmentId": profile.GovernmentID,
			"skills":       profile.Skills,
			"vehicle":      profile.Vehicle,
			"docsUrl":      profile.DocsURL,
			"status":       profile.Status,
			"appliedAt":    profile.AppliedAt,
			"reviewedAt":   profile.ReviewedAt,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
