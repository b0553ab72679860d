// models/incident.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IncidentType string

const (
	IncidentTypeSOS  IncidentType = "SOS"
	IncidentTypeRisk IncidentType = "RISK"
)

func (t IncidentType) Valid() bool {
	return t == IncidentTypeSOS || t == IncidentTypeRisk
}

type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusAssigned   IncidentStatus = "assigned"
	IncidentStatusInProgress IncidentStatus = "in-progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusClosed     IncidentStatus = "closed"
)

// statuses only move forward through this order
var incidentStatusRank = map[IncidentStatus]int{
	IncidentStatusOpen:       0,
	IncidentStatusAssigned:   1,
	IncidentStatusInProgress: 2,
	IncidentStatusResolved:   3,
	IncidentStatusClosed:     4,
}

func (s IncidentStatus) Valid() bool {
	_, ok := incidentStatusRank[s]
	return ok
}

// CanTransitionTo reports whether next is the same status or a later one.
func (s IncidentStatus) CanTransitionTo(next IncidentStatus) bool {
	from, ok := incidentStatusRank[s]
	if !ok {
		// unknown legacy values may move anywhere valid
		return next.Valid()
	}
	to, ok := incidentStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

func (s IncidentStatus) IsFinished() bool {
	return s == IncidentStatusResolved || s == IncidentStatusClosed
}

type Incident struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReporterID  primitive.ObjectID `json:"reporterId" bson:"reporterId"`
	Type        IncidentType       `json:"type" bson:"type"`
	Description string             `json:"description" bson:"description"`
	Location    *IncidentLocation  `json:"location" bson:"location"`

	// SOS
	EmergencyType string `json:"emergencyType" bson:"emergencyType"`
	Priority      string `json:"priority" bson:"priority"`

	// RISK
	RiskType          string   `json:"riskType" bson:"riskType"`
	Severity          string   `json:"severity" bson:"severity"`
	PeopleInvolved    int      `json:"peopleInvolved" bson:"peopleInvolved"`
	EstimatedRiskTime string   `json:"estimatedRiskTime" bson:"estimatedRiskTime"`
	AdditionalNotes   string   `json:"additionalNotes" bson:"additionalNotes"`
	Images            []string `json:"images" bson:"images"`

	// Workflow
	Status              IncidentStatus      `json:"status" bson:"status"`
	AssignedVolunteerID *primitive.ObjectID `json:"assignedVolunteerId" bson:"assignedVolunteerId"`
	AssignedOfficers    []AssignedOfficer   `json:"assignedOfficers" bson:"assignedOfficers"`
	NotifiedContacts    []string            `json:"notifiedContacts" bson:"notifiedContacts"`
	ResolvedAt          *time.Time          `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	CreatedAt           time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type AssignedOfficer struct {
	OfficerID  primitive.ObjectID `json:"officerId" bson:"officerId"`
	Type       OfficerType        `json:"type" bson:"type"`
	Name       string             `json:"name" bson:"name"`
	RiskZone   string             `json:"riskZone" bson:"riskZone"`
	AssignedAt time.Time          `json:"assignedAt" bson:"assignedAt"`
}

// HasOfficer reports whether the officer is already on the incident.
func (i *Incident) HasOfficer(officerID primitive.ObjectID) bool {
	for _, ao := range i.AssignedOfficers {
		if ao.OfficerID == officerID {
			return true
		}
	}
	return false
}

// GeoPoint is the structured form of an incident location.
type GeoPoint struct {
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
	Address string  `json:"address,omitempty" bson:"address,omitempty"`
}

// IncidentLocation is either free text ("Near the old bridge") or a point.
// Both forms are stored and served in the shape they were submitted in.
type IncidentLocation struct {
	Text  string
	Point *GeoPoint
}

func TextLocation(s string) *IncidentLocation {
	return &IncidentLocation{Text: s}
}

func PointLocation(lat, lng float64, address string) *IncidentLocation {
	return &IncidentLocation{Point: &GeoPoint{Lat: lat, Lng: lng, Address: address}}
}

// String renders the location for SMS bodies and logs.
func (l *IncidentLocation) String() string {
	if l == nil {
		return ""
	}
	if l.Point == nil {
		return l.Text
	}
	if l.Point.Address != "" {
		return fmt.Sprintf("%s (%.5f, %.5f)", l.Point.Address, l.Point.Lat, l.Point.Lng)
	}
	return fmt.Sprintf("%.5f, %.5f", l.Point.Lat, l.Point.Lng)
}

func (l IncidentLocation) MarshalJSON() ([]byte, error) {
	if l.Point != nil {
		return json.Marshal(l.Point)
	}
	return json.Marshal(l.Text)
}

func (l *IncidentLocation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = IncidentLocation{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = IncidentLocation{Text: s}
		return nil
	case data[0] == '{':
		var p GeoPoint
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*l = IncidentLocation{Point: &p}
		return nil
	default:
		return fmt.Errorf("location must be a string or an object with lat/lng")
	}
}

func (l IncidentLocation) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if l.Point != nil {
		return bson.MarshalValue(l.Point)
	}
	return bson.MarshalValue(l.Text)
}

// UnmarshalBSONValue accepts documents written with either location shape.
func (l *IncidentLocation) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = IncidentLocation{}
		return nil
	case bsontype.String:
		s, ok := rv.StringValueOK()
		if !ok {
			return fmt.Errorf("invalid string location")
		}
		*l = IncidentLocation{Text: s}
		return nil
	}

	var p GeoPoint
	if err := rv.Unmarshal(&p); err != nil {
		return err
	}
	*l = IncidentLocation{Point: &p}
	return nil
}

// ============== REQUESTS ==============

type CreateIncidentRequest struct {
	Type        IncidentType      `json:"type" validate:"required,incident_type"`
	ReporterID  string            `json:"reporterId,omitempty"`
	Description string            `json:"description" validate:"max=2000"`
	Location    *IncidentLocation `json:"location"`

	EmergencyType string `json:"emergencyType" validate:"omitempty,oneof=medical fire crime accident natural other"`
	Priority      string `json:"priority" validate:"omitempty,oneof=low medium high critical"`

	RiskType          string   `json:"riskType" validate:"max=100"`
	Severity          string   `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	PeopleInvolved    int      `json:"peopleInvolved" validate:"min=0"`
	EstimatedRiskTime string   `json:"estimatedRiskTime" validate:"max=100"`
	AdditionalNotes   string   `json:"additionalNotes" validate:"max=2000"`
	Images            []string `json:"images" validate:"max=10,dive,max=500"`
}

type UpdateIncidentRequest struct {
	Status              *IncidentStatus `json:"status,omitempty"`
	Priority            *string         `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Severity            *string         `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Description         *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	AssignedVolunteerID *string         `json:"assignedVolunteerId,omitempty"`
}

type VolunteerStatusUpdateRequest struct {
	Status IncidentStatus `json:"status" validate:"required"`
}

type AcceptIncidentRequest struct {
	VolunteerID string `json:"volunteerId,omitempty"`
}

type IncidentFilter struct {
	ReporterID          string
	AssignedVolunteerID string
	Status              IncidentStatus
	Type                IncidentType
	UnassignedOnly      bool
	Limit               int64
}
