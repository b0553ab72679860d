// models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DonationType string

const (
	DonationCreditCard   DonationType = "credit-card"
	DonationBankTransfer DonationType = "bank-transfer"
	DonationPayPal       DonationType = "paypal"
	DonationResources    DonationType = "resources"
)

func (t DonationType) Valid() bool {
	switch t {
	case DonationCreditCard, DonationBankTransfer, DonationPayPal, DonationResources:
		return true
	}
	return false
}

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

const DefaultCurrency = "USD"

type Donation struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Donor     string             `json:"donor" bson:"donor"`
	Email     string             `json:"email" bson:"email"`
	Phone     string             `json:"phone" bson:"phone"`
	Type      DonationType       `json:"type" bson:"type"`
	Amount    float64            `json:"amount" bson:"amount"`
	Currency  string             `json:"currency" bson:"currency"`
	Status    DonationStatus     `json:"status" bson:"status"`
	Anonymous bool               `json:"anonymous" bson:"anonymous"`
	Message   string             `json:"message" bson:"message"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type CreateDonationRequest struct {
	Donor     string         `json:"donor" validate:"required,min=1,max=100"`
	Email     string         `json:"email" validate:"required,email"`
	Phone     string         `json:"phone" validate:"omitempty,phone"`
	Type      DonationType   `json:"type" validate:"required,donation_type"`
	Amount    float64        `json:"amount" validate:"required,gt=0"`
	Currency  string         `json:"currency" validate:"omitempty,len=3,alpha"`
	Status    DonationStatus `json:"status" validate:"omitempty,oneof=pending completed failed"`
	Anonymous bool           `json:"anonymous"`
	Message   string         `json:"message" validate:"max=1000"`
}

type DonationStats struct {
	TotalAmount        float64 `json:"totalAmount" bson:"totalAmount"`
	MonthlyAmount      float64 `json:"monthlyAmount" bson:"monthlyAmount"`
	TotalDonations     int64   `json:"totalDonations" bson:"totalDonations"`
	CompletedDonations int64   `json:"completedDonations" bson:"completedDonations"`
	PendingDonations   int64   `json:"pendingDonations" bson:"pendingDonations"`
	FailedDonations    int64   `json:"failedDonations" bson:"failedDonations"`
}
