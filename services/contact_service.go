package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

type ContactService struct {
	contactRepo interfaces.ContactRepository
	validator   *utils.ValidationService
	now         func() time.Time
}

func NewContactService(contactRepo interfaces.ContactRepository, validator *utils.ValidationService) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		validator:   validator,
		now:         time.Now,
	}
}

func (cs *ContactService) ListContacts(ctx context.Context, actor models.Actor, userID string) ([]models.Contact, error) {
	id, err := utils.ParseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if !actor.IsSelfOrAdmin(id) {
		return nil, utils.NewForbiddenError("Access denied")
	}

	contacts, err := cs.contactRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, utils.NewDatabaseError("list contacts", err)
	}
	return contacts, nil
}

// CreateContact adds a contact owned by the caller. notifyOnSOS defaults
// to true when omitted.
func (cs *ContactService) CreateContact(ctx context.Context, actor models.Actor, req models.CreateContactRequest) (*models.Contact, error) {
	if err := cs.validator.Validate(req); err != nil {
		return nil, err
	}

	notify := true
	if req.NotifyOnSOS != nil {
		notify = *req.NotifyOnSOS
	}

	now := cs.now()
	contact := &models.Contact{
		UserID:      actor.UserID,
		Name:        strings.TrimSpace(req.Name),
		Phone:       utils.NormalizePhoneNumber(req.Phone),
		Relation:    req.Relation,
		Occupation:  req.Occupation,
		NotifyOnSOS: notify,
		IsFavorite:  req.IsFavorite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := cs.contactRepo.Create(ctx, contact); err != nil {
		return nil, utils.NewDatabaseError("create contact", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    actor.UserID.Hex(),
		"contact_id": contact.ID.Hex(),
	}).Info("Contact created")
	return contact, nil
}

func (cs *ContactService) UpdateContact(ctx context.Context, actor models.Actor, contactID string, req models.UpdateContactRequest) (*models.Contact, error) {
	if err := cs.validator.Validate(req); err != nil {
		return nil, err
	}

	contact, err := cs.ownedContact(ctx, actor, contactID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		contact.Phone = utils.NormalizePhoneNumber(*req.Phone)
	}
	if req.Relation != nil {
		contact.Relation = *req.Relation
	}
	if req.Occupation != nil {
		contact.Occupation = *req.Occupation
	}
	if req.NotifyOnSOS != nil {
		contact.NotifyOnSOS = *req.NotifyOnSOS
	}
	if req.IsFavorite != nil {
		contact.IsFavorite = *req.IsFavorite
	}
	contact.UpdatedAt = cs.now()

	if err := cs.contactRepo.Update(ctx, contact); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewNotFoundError("Contact")
		}
		return nil, utils.NewDatabaseError("update contact", err)
	}
	return contact, nil
}

func (cs *ContactService) DeleteContact(ctx context.Context, actor models.Actor, contactID string) error {
	contact, err := cs.ownedContact(ctx, actor, contactID)
	if err != nil {
		return err
	}

	if err := cs.contactRepo.Delete(ctx, contact.ID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NewNotFoundError("Contact")
		}
		return utils.NewDatabaseError("delete contact", err)
	}
	return nil
}

func (cs *ContactService) ownedContact(ctx context.Context, actor models.Actor, contactID string) (*models.Contact, error) {
	id, err := utils.ParseObjectID(contactID, "contact")
	if err != nil {
		return nil, err
	}

	contact, err := cs.contactRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Contact")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find contact", err)
	}
	if !actor.IsSelfOrAdmin(contact.UserID) {
		return nil, utils.NewForbiddenError("Access denied to this contact")
	}
	return contact, nil
}
