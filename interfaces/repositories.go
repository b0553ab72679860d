package interfaces

import (
	"context"
	"errors"
	"time"

	"disasterguardian/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage errors shared by repository implementations.
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrConflict  = errors.New("document changed concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Incident, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error)
	// Update writes the mutable fields only while the stored status still
	// equals expected; otherwise it returns ErrConflict.
	Update(ctx context.Context, incident *models.Incident, expected models.IncidentStatus) error
	// AssignVolunteer sets the volunteer when the incident is unassigned (or
	// already held by the same volunteer) and not yet in progress.
	AssignVolunteer(ctx context.Context, id, volunteerUserID primitive.ObjectID, at time.Time) (*models.Incident, error)
	// AddOfficers appends entries whose officer is not already listed and
	// moves an open incident to assigned.
	AddOfficers(ctx context.Context, id primitive.ObjectID, officers []models.AssignedOfficer, at time.Time) (*models.Incident, error)
	SetNotifiedContacts(ctx context.Context, id primitive.ObjectID, phones []string) error
}

type VolunteerRepository interface {
	Create(ctx context.Context, profile *models.VolunteerProfile) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.VolunteerProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.VolunteerProfile, error)
	List(ctx context.Context, status models.VolunteerStatus) ([]models.VolunteerProfile, error)
	Update(ctx context.Context, profile *models.VolunteerProfile) error
}

type OfficerRepository interface {
	Create(ctx context.Context, officer *models.Officer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Officer, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Officer, error)
	List(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error)
	Update(ctx context.Context, officer *models.Officer) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AddAssignment pushes an active assignment unless one for the same
	// incident is already active; added reports whether anything changed.
	AddAssignment(ctx context.Context, officerID primitive.ObjectID, assignment models.OfficerAssignment) (added bool, err error)
	// CompleteAssignments closes active assignments for the incident and
	// frees officers left without active work.
	CompleteAssignments(ctx context.Context, incidentID primitive.ObjectID, at time.Time) (int64, error)
}

type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error)
	ListSOSRecipients(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	List(ctx context.Context, limit int64) ([]models.Donation, error)
	Stats(ctx context.Context, monthStart time.Time) (*models.DonationStats, error)
}

type SmsLogRepository interface {
	Create(ctx context.Context, log *models.SmsLog) error
	List(ctx context.Context, incidentID *primitive.ObjectID, limit int64) ([]models.SmsLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
