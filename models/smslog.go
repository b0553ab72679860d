// models/smslog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SmsLog records one outbound SMS attempt.
type SmsLog struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	To         string              `json:"to" bson:"to"`
	Message    string              `json:"message" bson:"message"`
	IncidentID *primitive.ObjectID `json:"incidentId,omitempty" bson:"incidentId,omitempty"`
	Timestamp  time.Time           `json:"timestamp" bson:"timestamp"`
	Success    bool                `json:"success" bson:"success"`
	ProviderID string              `json:"providerId,omitempty" bson:"providerId,omitempty"`
	Error      string              `json:"error,omitempty" bson:"error,omitempty"`
	Attempts   int                 `json:"attempts" bson:"attempts"`
}

// SMSJob is a queued outbound message.
type SMSJob struct {
	To         string
	Message    string
	IncidentID *primitive.ObjectID
}
