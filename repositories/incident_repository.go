package repositories

import (
	"context"
	"errors"
	"time"

	"disasterguardian/database"
	"disasterguardian/interfaces"
	"disasterguardian/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IncidentRepository struct {
	collection *mongo.Collection
}

func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{
		collection: db.Collection(database.IncidentsCollection),
	}
}

func (ir *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	if incident.ID.IsZero() {
		incident.ID = primitive.NewObjectID()
	}
	_, err := ir.collection.InsertOne(ctx, incident)
	return writeError(err)
}

func (ir *IncidentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Incident, error) {
	var incident models.Incident
	if err := findOne(ctx, ir.collection, bson.M{"_id": id}, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (ir *IncidentRepository) List(ctx context.Context, f models.IncidentFilter) ([]models.Incident, error) {
	filter := bson.M{}
	if f.ReporterID != "" {
		id, err := primitive.ObjectIDFromHex(f.ReporterID)
		if err != nil {
			return []models.Incident{}, nil
		}
		filter["reporterId"] = id
	}
	if f.AssignedVolunteerID != "" {
		id, err := primitive.ObjectIDFromHex(f.AssignedVolunteerID)
		if err != nil {
			return []models.Incident{}, nil
		}
		filter["assignedVolunteerId"] = id
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.UnassignedOnly {
		filter["assignedVolunteerId"] = nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(listLimit(f.Limit))

	cursor, err := ir.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	incidents := []models.Incident{}
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (ir *IncidentRepository) Update(ctx context.Context, incident *models.Incident, expected models.IncidentStatus) error {
	result, err := ir.collection.UpdateOne(ctx,
		statusGuard(incident.ID, expected),
		bson.M{"$set": bson.M{
			"description":         incident.Description,
			"priority":            incident.Priority,
			"severity":            incident.Severity,
			"status":              incident.Status,
			"assignedVolunteerId": incident.AssignedVolunteerID,
			"resolvedAt":          incident.ResolvedAt,
			"updatedAt":           incident.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ir.missingOrConflict(ctx, incident.ID)
	}
	return nil
}

func (ir *IncidentRepository) AssignVolunteer(ctx context.Context, id, volunteerUserID primitive.ObjectID, at time.Time) (*models.Incident, error) {
	filter, update := acceptGuard(id, volunteerUserID, at)

	var incident models.Incident
	err := ir.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&incident)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ir.missingOrConflict(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (ir *IncidentRepository) AddOfficers(ctx context.Context, id primitive.ObjectID, officers []models.AssignedOfficer, at time.Time) (*models.Incident, error) {
	if len(officers) > 0 {
		filter, update := addOfficersGuard(id, officers, at)
		result, err := ir.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, ir.missingOrConflict(ctx, id)
		}

		_, err = ir.collection.UpdateOne(ctx,
			bson.M{"_id": id, "status": models.IncidentStatusOpen},
			bson.M{"$set": bson.M{"status": models.IncidentStatusAssigned}},
		)
		if err != nil {
			return nil, err
		}
	}

	return ir.GetByID(ctx, id)
}

func (ir *IncidentRepository) SetNotifiedContacts(ctx context.Context, id primitive.ObjectID, phones []string) error {
	result, err := ir.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"notifiedContacts": bson.M{"$each": phones}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// missingOrConflict tells an absent document from a failed guard
func (ir *IncidentRepository) missingOrConflict(ctx context.Context, id primitive.ObjectID) error {
	count, err := ir.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrConflict
}

// statusGuard matches the incident only while its status is unchanged
func statusGuard(id primitive.ObjectID, expected models.IncidentStatus) bson.M {
	return bson.M{"_id": id, "status": expected}
}

// acceptGuard matches an open or assigned incident that nobody else holds.
func acceptGuard(id, volunteerUserID primitive.ObjectID, at time.Time) (filter, update bson.M) {
	filter = bson.M{
		"_id":    id,
		"status": bson.M{"$in": []models.IncidentStatus{models.IncidentStatusOpen, models.IncidentStatusAssigned}},
		"$or": []bson.M{
			{"assignedVolunteerId": nil},
			{"assignedVolunteerId": volunteerUserID},
		},
	}
	update = bson.M{"$set": bson.M{
		"assignedVolunteerId": volunteerUserID,
		"status":              models.IncidentStatusAssigned,
		"updatedAt":           at,
	}}
	return filter, update
}

// addOfficersGuard pushes the entries only if none of their officers is
// already listed on the incident.
func addOfficersGuard(id primitive.ObjectID, officers []models.AssignedOfficer, at time.Time) (filter, update bson.M) {
	ids := make([]primitive.ObjectID, 0, len(officers))
	for _, o := range officers {
		ids = append(ids, o.OfficerID)
	}
	filter = bson.M{"_id": id, "assignedOfficers.officerId": bson.M{"$nin": ids}}
	update = bson.M{
		"$push": bson.M{"assignedOfficers": bson.M{"$each": officers}},
		"$set":  bson.M{"updatedAt": at},
	}
	return filter, update
}
