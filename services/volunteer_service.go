package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VolunteerService struct {
	volunteerRepo interfaces.VolunteerRepository
	userRepo      interfaces.UserRepository
	incidentRepo  interfaces.IncidentRepository
	notifier      *NotificationService
	validator     *utils.ValidationService
	now           func() time.Time
}

func NewVolunteerService(
	volunteerRepo interfaces.VolunteerRepository,
	userRepo interfaces.UserRepository,
	incidentRepo interfaces.IncidentRepository,
	notifier *NotificationService,
	validator *utils.ValidationService,
) *VolunteerService {
	return &VolunteerService{
		volunteerRepo: volunteerRepo,
		userRepo:      userRepo,
		incidentRepo:  incidentRepo,
		notifier:      notifier,
		validator:     validator,
		now:           time.Now,
	}
}

// Apply files a volunteer application for the caller. A rejected
// applicant may re-apply; the profile goes back to pending.
func (vs *VolunteerService) Apply(ctx context.Context, actor models.Actor, req models.VolunteerApplicationRequest) (*models.VolunteerProfile, error) {
	if err := vs.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapApplyVolunteer) {
		return nil, utils.NewForbiddenError("Only volunteer accounts can apply")
	}

	now := vs.now()
	existing, err := vs.volunteerRepo.GetByUserID(ctx, actor.UserID)
	switch {
	case err == nil:
		if existing.Status != models.VolunteerStatusRejected {
			return nil, utils.NewConflictError(fmt.Sprintf("Application already %s", existing.Status))
		}
		existing.GovernmentID = strings.TrimSpace(req.GovernmentID)
		existing.Skills = req.Skills
		existing.Vehicle = req.Vehicle
		existing.DocsURL = req.DocsURL
		existing.Status = models.VolunteerStatusPending
		existing.AppliedAt = now
		existing.ReviewedAt = nil
		if err := vs.volunteerRepo.Update(ctx, existing); err != nil {
			return nil, utils.NewDatabaseError("update volunteer profile", err)
		}
		logrus.WithField("user_id", actor.UserID.Hex()).Info("Volunteer re-applied")
		return existing, nil
	case !errors.Is(err, interfaces.ErrNotFound):
		return nil, utils.NewDatabaseError("find volunteer profile", err)
	}

	profile := &models.VolunteerProfile{
		UserID:       actor.UserID,
		GovernmentID: strings.TrimSpace(req.GovernmentID),
		Skills:       req.Skills,
		Vehicle:      req.Vehicle,
		DocsURL:      req.DocsURL,
		Status:       models.VolunteerStatusPending,
		AppliedAt:    now,
		CreatedAt:    now,
	}
	if err := vs.volunteerRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.NewConflictError("Application already submitted")
		}
		return nil, utils.NewDatabaseError("create volunteer profile", err)
	}

	logrus.WithField("user_id", actor.UserID.Hex()).Info("Volunteer application submitted")
	return profile, nil
}

func (vs *VolunteerService) GetProfile(ctx context.Context, actor models.Actor, userID string) (*models.VolunteerView, error) {
	id, err := utils.ParseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if !actor.IsSelfOrAdmin(id) {
		return nil, utils.NewForbiddenError("Access denied")
	}

	profile, err := vs.volunteerRepo.GetByUserID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Volunteer profile")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find volunteer profile", err)
	}

	views, err := vs.withUsers(ctx, []models.VolunteerProfile{*profile})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListVolunteers returns applications, optionally filtered by status,
// joined with the applicants' contact details.
func (vs *VolunteerService) ListVolunteers(ctx context.Context, actor models.Actor, status models.VolunteerStatus) ([]models.VolunteerView, error) {
	if !actor.Can(models.CapReviewVolunteers) {
		return nil, utils.NewForbiddenError("Only administrators can list volunteers")
	}
	if status != "" && !status.Valid() {
		return nil, utils.NewBadRequestError("invalid status filter")
	}

	profiles, err := vs.volunteerRepo.List(ctx, status)
	if err != nil {
		return nil, utils.NewDatabaseError("list volunteers", err)
	}
	return vs.withUsers(ctx, profiles)
}

// Verify sets the review outcome. Re-applying the current status changes
// nothing.
func (vs *VolunteerService) Verify(ctx context.Context, actor models.Actor, volunteerID string, req models.VerifyVolunteerRequest) (*models.VolunteerProfile, error) {
	if err := vs.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapReviewVolunteers) {
		return nil, utils.NewForbiddenError("Only administrators can verify volunteers")
	}

	id, err := utils.ParseObjectID(volunteerID, "volunteer")
	if err != nil {
		return nil, err
	}
	profile, err := vs.findProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if profile.Status == req.Status {
		return profile, nil
	}
	if profile.IsVerified() {
		if err := vs.ensureNoActiveIncidents(ctx, profile.UserID); err != nil {
			return nil, err
		}
	}

	profile.Status = req.Status
	profile.ReviewedAt = utils.TimePtr(vs.now())
	if err := vs.volunteerRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewNotFoundError("Volunteer")
		}
		return nil, utils.NewDatabaseError("update volunteer profile", err)
	}

	logrus.WithFields(logrus.Fields{
		"volunteer_id": profile.ID.Hex(),
		"status":       profile.Status,
		"reviewer_id":  actor.UserID.Hex(),
	}).Info("Volunteer reviewed")
	return profile, nil
}

// ensureNoActiveIncidents blocks revoking verification while the
// volunteer is still assigned to unfinished incidents.
func (vs *VolunteerService) ensureNoActiveIncidents(ctx context.Context, userID primitive.ObjectID) error {
	incidents, err := vs.incidentRepo.List(ctx, models.IncidentFilter{AssignedVolunteerID: userID.Hex()})
	if err != nil {
		return utils.NewDatabaseError("list incidents", err)
	}
	active := 0
	for _, incident := range incidents {
		if !incident.Status.IsFinished() {
			active++
		}
	}
	if active > 0 {
		return utils.NewConflictError(fmt.Sprintf("Volunteer is assigned to %d active incident(s); reassign them first", active))
	}
	return nil
}

// Notify dispatches a message about an incident to the listed volunteers.
// Ids may be profile ids or user ids; the event carries user ids.
func (vs *VolunteerService) Notify(ctx context.Context, actor models.Actor, req models.NotifyVolunteersRequest) (*models.VolunteerNotification, error) {
	if err := vs.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapNotifyVolunteers) {
		return nil, utils.NewForbiddenError("Only administrators can notify volunteers")
	}

	incidentID, err := utils.ParseObjectID(req.IncidentID, "incident")
	if err != nil {
		return nil, err
	}
	if _, err := vs.incidentRepo.GetByID(ctx, incidentID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewNotFoundError("Incident")
		}
		return nil, utils.NewDatabaseError("find incident", err)
	}

	userIDs := make([]string, 0, len(req.VolunteerIDs))
	for _, raw := range utils.UniqueStrings(req.VolunteerIDs) {
		id, err := utils.ParseObjectID(raw, "volunteer")
		if err != nil {
			return nil, err
		}
		profile, err := vs.findProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		if uid := profile.UserID.Hex(); !utils.StringSliceContains(userIDs, uid) {
			userIDs = append(userIDs, uid)
		}
	}

	note := &models.VolunteerNotification{
		VolunteerIDs:   userIDs,
		IncidentID:     incidentID.Hex(),
		Message:        strings.TrimSpace(req.Message),
		SafetyCautions: req.SafetyCautions,
		RouteInfo:      req.RouteInfo,
		SentBy:         actor.UserID.Hex(),
		SentAt:         vs.now(),
	}
	vs.notifier.DispatchVolunteers(ctx, *note)

	logrus.WithFields(logrus.Fields{
		"incident_id": note.IncidentID,
		"volunteers":  len(userIDs),
	}).Info("Volunteers notified")
	return note, nil
}

// findProfile looks a profile up by its own id, then by user id.
func (vs *VolunteerService) findProfile(ctx context.Context, id primitive.ObjectID) (*models.VolunteerProfile, error) {
	profile, err := vs.volunteerRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		profile, err = vs.volunteerRepo.GetByUserID(ctx, id)
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Volunteer")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find volunteer", err)
	}
	return profile, nil
}

func (vs *VolunteerService) withUsers(ctx context.Context, profiles []models.VolunteerProfile) ([]models.VolunteerView, error) {
	ids := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}

	users, err := vs.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, utils.NewDatabaseError("find users", err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.VolunteerView, 0, len(profiles))
	for _, p := range profiles {
		view := models.VolunteerView{VolunteerProfile: p}
		if u, ok := byID[p.UserID]; ok {
			view.Name = u.Name
			view.Email = u.Email
			view.Phone = u.Phone
		}
		views = append(views, view)
	}
	return views, nil
}
