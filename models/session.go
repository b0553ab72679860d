package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller, decoded from the access token.
type Actor struct {
	UserID    primitive.ObjectID
	Email     string
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

func (a Actor) Can(c Capability) bool {
	return a.Role.Can(c)
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSelfOrAdmin reports whether the actor may act on userID's resources.
func (a Actor) IsSelfOrAdmin(userID primitive.ObjectID) bool {
	return a.IsAdmin() || a.UserID == userID
}
