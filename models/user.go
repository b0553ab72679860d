// models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone" bson:"phone"`
	Address      string             `json:"address" bson:"address"`
	Language     string             `json:"language" bson:"language"`
	PasswordHash string             `json:"-" bson:"passwordHash"` // never serialized
	Role         Role               `json:"role" bson:"role"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Role is the closed set of account roles.
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Capability names an action gated by role.
type Capability string

const (
	CapReportIncident    Capability = "incident:report"
	CapViewAllIncidents  Capability = "incident:view_all"
	CapManageIncidents   Capability = "incident:manage"
	CapAcceptIncident    Capability = "incident:accept"
	CapApplyVolunteer    Capability = "volunteer:apply"
	CapReviewVolunteers  Capability = "volunteer:review"
	CapNotifyVolunteers  Capability = "volunteer:notify"
	CapManageOfficers    Capability = "officer:manage"
	CapViewDonations     Capability = "donation:view"
	CapManageContacts    Capability = "contact:manage"
	CapViewAuditLogs     Capability = "smslog:view"
	CapReceiveDispatches Capability = "event:dispatch"
)

var roleCapabilities = map[Role][]Capability{
	RoleCitizen: {
		CapReportIncident,
		CapManageContacts,
	},
	RoleVolunteer: {
		CapReportIncident,
		CapManageContacts,
		CapViewAllIncidents,
		CapAcceptIncident,
		CapApplyVolunteer,
		CapReceiveDispatches,
	},
	RoleAdmin: {
		CapReportIncident,
		CapManageContacts,
		CapViewAllIncidents,
		CapManageIncidents,
		CapReviewVolunteers,
		CapNotifyVolunteers,
		CapManageOfficers,
		CapViewDonations,
		CapViewAuditLogs,
		CapReceiveDispatches,
	},
}

// ParseRole normalizes a role string. ok is false for anything outside the enum.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleCapabilities[r]
	return r, ok
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// UserProfile is the public projection of a user returned by the API.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Language  string    `json:"language"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Language:  u.Language,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=300"`
	Language *string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
}
