package repositories

import (
	"context"
	"time"

	"disasterguardian/database"
	"disasterguardian/interfaces"
	"disasterguardian/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OfficerRepository struct {
	collection *mongo.Collection
}

func NewOfficerRepository(db *mongo.Database) *OfficerRepository {
	return &OfficerRepository{
		collection: db.Collection(database.OfficersCollection),
	}
}

func (or *OfficerRepository) Create(ctx context.Context, officer *models.Officer) error {
	if officer.ID.IsZero() {
		officer.ID = primitive.NewObjectID()
	}
	_, err := or.collection.InsertOne(ctx, officer)
	return writeError(err)
}

func (or *OfficerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Officer, error) {
	var officer models.Officer
	if err := findOne(ctx, or.collection, bson.M{"_id": id}, &officer); err != nil {
		return nil, err
	}
	return &officer, nil
}

func (or *OfficerRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Officer, error) {
	return or.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (or *OfficerRepository) List(ctx context.Context, f models.OfficerFilter) ([]models.Officer, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return or.find(ctx, filter)
}

func (or *OfficerRepository) find(ctx context.Context, filter bson.M) ([]models.Officer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(defaultListLimit)

	cursor, err := or.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	officers := []models.Officer{}
	if err := cursor.All(ctx, &officers); err != nil {
		return nil, err
	}
	return officers, nil
}

func (or *OfficerRepository) Update(ctx context.Context, officer *models.Officer) error {
	result, err := or.collection.UpdateOne(ctx,
		bson.M{"_id": officer.ID},
		bson.M{"$set": bson.M{
			"name":               officer.Name,
			"type":               officer.Type,
			"organizationName":   officer.OrganizationName,
			"phone":              officer.Phone,
			"email":              officer.Email,
			"location":           officer.Location,
			"status":             officer.Status,
			"skills":             officer.Skills,
			"vehicleType":        officer.VehicleType,
			"equipmentAvailable": officer.EquipmentAvailable,
			"updatedAt":          officer.UpdatedAt,
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

func (or *OfficerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := or.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (or *OfficerRepository) AddAssignment(ctx context.Context, officerID primitive.ObjectID, a models.OfficerAssignment) (bool, error) {
	filter, update := assignmentGuard(officerID, a)
	result, err := or.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		count, err := or.collection.CountDocuments(ctx, bson.M{"_id": officerID})
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, interfaces.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (or *OfficerRepository) CompleteAssignments(ctx context.Context, incidentID primitive.ObjectID, at time.Time) (int64, error) {
	filter, update, arrayFilters := completeAssignments(incidentID, at)
	result, err := or.collection.UpdateMany(ctx, filter, update,
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: arrayFilters}),
	)
	if err != nil {
		return 0, err
	}

	filter, update = releaseIdleOfficers(incidentID, at)
	_, err = or.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// assignmentGuard pushes the assignment unless an active one for the same
// incident is already on the officer.
func assignmentGuard(officerID primitive.ObjectID, a models.OfficerAssignment) (filter, update bson.M) {
	filter = bson.M{
		"_id": officerID,
		"currentAssignments": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"incidentId": a.IncidentID,
			"status":     models.AssignmentActive,
		}}},
	}
	update = bson.M{
		"$push": bson.M{"currentAssignments": a},
		"$set": bson.M{
			"status":    models.OfficerStatusAssigned,
			"updatedAt": a.AssignedAt,
		},
	}
	return filter, update
}

// completeAssignments marks every active assignment for the incident completed
func completeAssignments(incidentID primitive.ObjectID, at time.Time) (filter, update bson.M, arrayFilters []interface{}) {
	filter = bson.M{"currentAssignments": bson.M{"$elemMatch": bson.M{
		"incidentId": incidentID,
		"status":     models.AssignmentActive,
	}}}
	update = bson.M{"$set": bson.M{
		"currentAssignments.$[a].status": models.AssignmentCompleted,
		"updatedAt":                      at,
	}}
	arrayFilters = []interface{}{bson.M{"a.incidentId": incidentID, "a.status": models.AssignmentActive}}
	return filter, update, arrayFilters
}

// releaseIdleOfficers frees officers of the incident with nothing active left
func releaseIdleOfficers(incidentID primitive.ObjectID, at time.Time) (filter, update bson.M) {
	filter = bson.M{
		"status":                        models.OfficerStatusAssigned,
		"currentAssignments.incidentId": incidentID,
		"currentAssignments": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"status": models.AssignmentActive,
		}}},
	}
	update = bson.M{"$set": bson.M{"status": models.OfficerStatusAvailable, "updatedAt": at}}
	return filter, update
}
