// models/volunteer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VolunteerStatus string

const (
	VolunteerStatusPending  VolunteerStatus = "pending"
	VolunteerStatusVerified VolunteerStatus = "verified"
	VolunteerStatusRejected VolunteerStatus = "rejected"
)

func (s VolunteerStatus) Valid() bool {
	switch s {
	case VolunteerStatusPending, VolunteerStatusVerified, VolunteerStatusRejected:
		return true
	}
	return false
}

type VolunteerProfile struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       primitive.ObjectID `json:"userId" bson:"userId"`
	GovernmentID string             `json:"governmentId" bson:"governmentId"`
	Skills       string             `json:"skills" bson:"skills"`
	Vehicle      string             `json:"vehicle" bson:"vehicle"`
	DocsURL      string             `json:"docsUrl" bson:"docsUrl"`
	Status       VolunteerStatus    `json:"status" bson:"status"`
	AppliedAt    time.Time          `json:"appliedAt" bson:"appliedAt"`
	ReviewedAt   *time.Time         `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

func (p *VolunteerProfile) IsVerified() bool {
	return p != nil && p.Status == VolunteerStatusVerified
}

// VolunteerView joins a profile with the applicant's contact details.
type VolunteerView struct {
	VolunteerProfile `bson:",inline"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
}

type VolunteerApplicationRequest struct {
	GovernmentID string `json:"governmentId" validate:"required,min=3,max=50"`
	Skills       string `json:"skills" validate:"max=500"`
	Vehicle      string `json:"vehicle" validate:"max=100"`
	DocsURL      string `json:"docsUrl" validate:"omitempty,max=500"`
}

type VerifyVolunteerRequest struct {
	Status VolunteerStatus `json:"status" validate:"required,oneof=pending verified rejected"`
}

type RouteInfo struct {
	Start         string `json:"start" validate:"max=300"`
	Destination   string `json:"destination" validate:"max=300"`
	WaypointNotes string `json:"waypointNotes" validate:"max=1000"`
}

type NotifyVolunteersRequest struct {
	VolunteerIDs   []string  `json:"volunteerIds" validate:"required,min=1,max=200,dive,required"`
	IncidentID     string    `json:"incidentId" validate:"required"`
	Message        string    `json:"message" validate:"required,max=2000"`
	SafetyCautions string    `json:"safetyCautions" validate:"max=2000"`
	RouteInfo      RouteInfo `json:"routeInfo"`
}
