package services

import (
	"context"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

type DonationService struct {
	donationRepo interfaces.DonationRepository
	validator    *utils.ValidationService
	now          func() time.Time
}

func NewDonationService(donationRepo interfaces.DonationRepository, validator *utils.ValidationService) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		validator:    validator,
		now:          time.Now,
	}
}

// CreateDonation records a donation. Currency defaults to USD and status
// to completed.
func (ds *DonationService) CreateDonation(ctx context.Context, req models.CreateDonationRequest) (*models.Donation, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := ds.validator.Validate(req); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = models.DefaultCurrency
	}
	status := req.Status
	if status == "" {
		status = models.DonationCompleted
	}

	donation := &models.Donation{
		Donor:     strings.TrimSpace(req.Donor),
		Email:     req.Email,
		Phone:     utils.NormalizePhoneNumber(req.Phone),
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    status,
		Anonymous: req.Anonymous,
		Message:   req.Message,
		CreatedAt: ds.now(),
	}

	if err := ds.donationRepo.Create(ctx, donation); err != nil {
		return nil, utils.NewDatabaseError("create donation", err)
	}

	logrus.WithFields(logrus.Fields{
		"donation_id": donation.ID.Hex(),
		"type":        donation.Type,
		"amount":      donation.Amount,
		"currency":    donation.Currency,
	}).Info("Donation recorded")
	return donation, nil
}

func (ds *DonationService) ListDonations(ctx context.Context, limit int64) ([]models.Donation, error) {
	donations, err := ds.donationRepo.List(ctx, limit)
	if err != nil {
		return nil, utils.NewDatabaseError("list donations", err)
	}
	return donations, nil
}

// Stats sums completed donations overall and for the current month.
func (ds *DonationService) Stats(ctx context.Context) (*models.DonationStats, error) {
	stats, err := ds.donationRepo.Stats(ctx, utils.StartOfMonth(ds.now()))
	if err != nil {
		return nil, utils.NewDatabaseError("donation stats", err)
	}
	return stats, nil
}
