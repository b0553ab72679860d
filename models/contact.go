// models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is a citizen's emergency contact.
type Contact struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Name        string             `json:"name" bson:"name"`
	Phone       string             `json:"phone" bson:"phone"`
	Relation    string             `json:"relation" bson:"relation"`
	Occupation  string             `json:"occupation" bson:"occupation"`
	NotifyOnSOS bool               `json:"notifyOnSOS" bson:"notifyOnSOS"`
	IsFavorite  bool               `json:"isFavorite" bson:"isFavorite"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// notifyOnSOS is a pointer so an omitted field can default to true.
type CreateContactRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Phone       string `json:"phone" validate:"required,phone"`
	Relation    string `json:"relation" validate:"max=50"`
	Occupation  string `json:"occupation" validate:"max=100"`
	NotifyOnSOS *bool  `json:"notifyOnSOS,omitempty"`
	IsFavorite  bool   `json:"isFavorite"`
}

type UpdateContactRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Relation    *string `json:"relation,omitempty" validate:"omitempty,max=50"`
	Occupation  *string `json:"occupation,omitempty" validate:"omitempty,max=100"`
	NotifyOnSOS *bool   `json:"notifyOnSOS,omitempty"`
	IsFavorite  *bool   `json:"isFavorite,omitempty"`
}
