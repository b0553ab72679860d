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

type ContactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{
		collection: db.Collection(database.ContactsCollection),
	}
}

func (cr *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID.IsZero() {
		contact.ID = primitive.NewObjectID()
	}
	_, err := cr.collection.InsertOne(ctx, contact)
	return writeError(err)
}

func (cr *ContactRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var contact models.Contact
	if err := findOne(ctx, cr.collection, bson.M{"_id": id}, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (cr *ContactRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	return cr.find(ctx, bson.M{"userId": userID})
}

func (cr *ContactRepository) ListSOSRecipients(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	return cr.find(ctx, bson.M{"userId": userID, "notifyOnSOS": true})
}

func (cr *ContactRepository) find(ctx context.Context, filter bson.M) ([]models.Contact, error) {
	// favorites first, then by name
	opts := options.Find().SetSort(bson.D{
		{Key: "isFavorite", Value: -1},
		{Key: "name", Value: 1},
	})

	cursor, err := cr.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	contacts := []models.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (cr *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	result, err := cr.collection.UpdateOne(ctx,
		bson.M{"_id": contact.ID},
		bson.M{"$set": bson.M{
			"name":        contact.Name,
			"phone":       contact.Phone,
			"relation":    contact.Relation,
			"occupation":  contact.Occupation,
			"notifyOnSOS": contact.NotifyOnSOS,
			"isFavorite":  contact.IsFavorite,
			"updatedAt":   contact.UpdatedAt,
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

func (cr *ContactRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := cr.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
