// models/officer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfficerType string

const (
	OfficerTypeNDRF        OfficerType = "NDRF"
	OfficerTypeFirefighter OfficerType = "Firefighter"
	OfficerTypeNGO         OfficerType = "NGO"
	OfficerTypePolice      OfficerType = "Police"
	OfficerTypeMedical     OfficerType = "Medical"
	OfficerTypeOther       OfficerType = "Other"
)

var officerTypes = []OfficerType{
	OfficerTypeNDRF, OfficerTypeFirefighter, OfficerTypeNGO,
	OfficerTypePolice, OfficerTypeMedical, OfficerTypeOther,
}

func (t OfficerType) Valid() bool {
	for _, ot := range officerTypes {
		if ot == t {
			return true
		}
	}
	return false
}

type OfficerStatus string

const (
	OfficerStatusAvailable   OfficerStatus = "available"
	OfficerStatusAssigned    OfficerStatus = "assigned"
	OfficerStatusUnavailable OfficerStatus = "unavailable"
)

type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

type Officer struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name               string              `json:"name" bson:"name"`
	Type               OfficerType         `json:"type" bson:"type"`
	OrganizationName   string              `json:"organizationName" bson:"organizationName"`
	Phone              string              `json:"phone" bson:"phone"`
	Email              string              `json:"email" bson:"email"`
	Location           OfficerLocation     `json:"location" bson:"location"`
	Status             OfficerStatus       `json:"status" bson:"status"`
	Skills             []string            `json:"skills" bson:"skills"`
	VehicleType        string              `json:"vehicleType" bson:"vehicleType"`
	EquipmentAvailable []string            `json:"equipmentAvailable" bson:"equipmentAvailable"`
	CurrentAssignments []OfficerAssignment `json:"currentAssignments" bson:"currentAssignments"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type OfficerLocation struct {
	Address string  `json:"address" bson:"address"`
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
}

type OfficerAssignment struct {
	IncidentID primitive.ObjectID `json:"incidentId" bson:"incidentId"`
	RiskZone   string             `json:"riskZone" bson:"riskZone"`
	AssignedAt time.Time          `json:"assignedAt" bson:"assignedAt"`
	Status     AssignmentStatus   `json:"status" bson:"status"`
}

// HasActiveAssignment reports whether the officer is actively on the incident.
func (o *Officer) HasActiveAssignment(incidentID primitive.ObjectID) bool {
	for _, a := range o.CurrentAssignments {
		if a.IncidentID == incidentID && a.Status == AssignmentActive {
			return true
		}
	}
	return false
}

func (o *Officer) ActiveAssignmentCount() int {
	n := 0
	for _, a := range o.CurrentAssignments {
		if a.Status == AssignmentActive {
			n++
		}
	}
	return n
}

// ============== REQUESTS ==============

type CreateOfficerRequest struct {
	Name               string          `json:"name" validate:"required,min=1,max=100"`
	Type               OfficerType     `json:"type" validate:"required,officer_type"`
	OrganizationName   string          `json:"organizationName" validate:"max=200"`
	Phone              string          `json:"phone" validate:"required,phone"`
	Email              string          `json:"email" validate:"omitempty,email"`
	Location           OfficerLocation `json:"location"`
	Status             OfficerStatus   `json:"status" validate:"omitempty,oneof=available assigned unavailable"`
	Skills             []string        `json:"skills" validate:"max=50,dive,max=100"`
	VehicleType        string          `json:"vehicleType" validate:"max=100"`
	EquipmentAvailable []string        `json:"equipmentAvailable" validate:"max=50,dive,max=100"`
}

type UpdateOfficerRequest struct {
	Name               *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type               *OfficerType     `json:"type,omitempty" validate:"omitempty,officer_type"`
	OrganizationName   *string          `json:"organizationName,omitempty" validate:"omitempty,max=200"`
	Phone              *string          `json:"phone,omitempty" validate:"omitempty,phone"`
	Email              *string          `json:"email,omitempty" validate:"omitempty,email"`
	Location           *OfficerLocation `json:"location,omitempty"`
	Status             *OfficerStatus   `json:"status,omitempty" validate:"omitempty,oneof=available assigned unavailable"`
	Skills             []string         `json:"skills,omitempty" validate:"omitempty,max=50,dive,max=100"`
	VehicleType        *string          `json:"vehicleType,omitempty" validate:"omitempty,max=100"`
	EquipmentAvailable []string         `json:"equipmentAvailable,omitempty" validate:"omitempty,max=50,dive,max=100"`
}

type BulkAssignOfficersRequest struct {
	IncidentID string   `json:"incidentId" validate:"required"`
	OfficerIDs []string `json:"officerIds" validate:"required,min=1,max=50,dive,required"`
	RiskZone   string   `json:"riskZone" validate:"required,max=200"`
}

type BulkAssignResult struct {
	Incident *Incident `json:"incident"`
	Assigned []string  `json:"assigned"`
	Skipped  []string  `json:"skipped"`
}

type OfficerFilter struct {
	Type   OfficerType
	Status OfficerStatus
}
