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

type IncidentService struct {
	incidentRepo  interfaces.IncidentRepository
	volunteerRepo interfaces.VolunteerRepository
	officerRepo   interfaces.OfficerRepository
	userRepo      interfaces.UserRepository
	notifier      *NotificationService
	validator     *utils.ValidationService
	now           func() time.Time
}

func NewIncidentService(
	incidentRepo interfaces.IncidentRepository,
	volunteerRepo interfaces.VolunteerRepository,
	officerRepo interfaces.OfficerRepository,
	userRepo interfaces.UserRepository,
	notifier *NotificationService,
	validator *utils.ValidationService,
) *IncidentService {
	return &IncidentService{
		incidentRepo:  incidentRepo,
		volunteerRepo: volunteerRepo,
		officerRepo:   officerRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		validator:     validator,
		now:           time.Now,
	}
}

// CreateIncident files a report. The reporter is the caller unless an
// admin files on behalf of someone else.
func (is *IncidentService) CreateIncident(ctx context.Context, actor models.Actor, req models.CreateIncidentRequest) (*models.Incident, error) {
	if err := is.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapReportIncident) {
		return nil, utils.NewForbiddenError("Not allowed to report incidents")
	}

	reporterID := actor.UserID
	if req.ReporterID != "" && req.ReporterID != actor.UserID.Hex() {
		if !actor.IsAdmin() {
			return nil, utils.NewForbiddenError("Cannot report on behalf of another user")
		}
		id, err := utils.ParseObjectID(req.ReporterID, "reporter")
		if err != nil {
			return nil, err
		}
		reporterID = id
	}

	reporter, err := is.userRepo.GetByID(ctx, reporterID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Reporter")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find reporter", err)
	}

	now := is.now()
	incident := &models.Incident{
		ReporterID:        reporterID,
		Type:              req.Type,
		Description:       strings.TrimSpace(req.Description),
		Location:          normalizeLocation(req.Location),
		EmergencyType:     req.EmergencyType,
		Priority:          defaultString(req.Priority, "medium"),
		RiskType:          req.RiskType,
		Severity:          defaultString(req.Severity, "medium"),
		PeopleInvolved:    req.PeopleInvolved,
		EstimatedRiskTime: req.EstimatedRiskTime,
		AdditionalNotes:   req.AdditionalNotes,
		Images:            nonNilStrings(req.Images),
		Status:            models.IncidentStatusOpen,
		AssignedOfficers:  []models.AssignedOfficer{},
		NotifiedContacts:  []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := is.incidentRepo.Create(ctx, incident); err != nil {
		return nil, utils.NewDatabaseError("create incident", err)
	}

	logrus.WithFields(logrus.Fields{
		"incident_id": incident.ID.Hex(),
		"type":        incident.Type,
		"reporter_id": reporterID.Hex(),
	}).Info("Incident reported")

	if incident.Type == models.IncidentTypeSOS {
		if phones := is.notifier.NotifySOSContacts(ctx, incident, reporter); len(phones) > 0 {
			incident.NotifiedContacts = phones
		}
	}

	is.notifier.IncidentCreated(ctx, incident, actor.UserID.Hex())
	return incident, nil
}

// ListIncidents returns newest first. Citizens only ever see their own.
func (is *IncidentService) ListIncidents(ctx context.Context, actor models.Actor, filter models.IncidentFilter) ([]models.Incident, error) {
	if !actor.Can(models.CapViewAllIncidents) {
		filter.ReporterID = actor.UserID.Hex()
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, utils.NewBadRequestError("invalid status filter")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, utils.NewBadRequestError("invalid type filter")
	}

	incidents, err := is.incidentRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.NewDatabaseError("list incidents", err)
	}
	return incidents, nil
}

func (is *IncidentService) GetIncident(ctx context.Context, actor models.Actor, incidentID string) (*models.Incident, error) {
	incident, err := is.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(models.CapViewAllIncidents) && incident.ReporterID != actor.UserID {
		return nil, utils.NewForbiddenError("Access denied to this incident")
	}
	return incident, nil
}

// UpdateIncident applies an admin edit. Status only moves forward and a
// volunteer can only be assigned once verified.
func (is *IncidentService) UpdateIncident(ctx context.Context, actor models.Actor, incidentID string, req models.UpdateIncidentRequest) (*models.Incident, error) {
	if err := is.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapManageIncidents) {
		return nil, utils.NewForbiddenError("Only administrators can update incidents")
	}

	incident, err := is.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	expected := incident.Status
	wasFinished := incident.Status.IsFinished()
	action := "updated"

	if req.Priority != nil {
		incident.Priority = *req.Priority
	}
	if req.Severity != nil {
		incident.Severity = *req.Severity
	}
	if req.Description != nil {
		incident.Description = strings.TrimSpace(*req.Description)
	}

	if req.AssignedVolunteerID != nil {
		if *req.AssignedVolunteerID == "" {
			incident.AssignedVolunteerID = nil
		} else {
			userID, err := is.resolveVerifiedVolunteer(ctx, *req.AssignedVolunteerID)
			if err != nil {
				return nil, err
			}
			incident.AssignedVolunteerID = &userID
			if incident.Status == models.IncidentStatusOpen {
				incident.Status = models.IncidentStatusAssigned
			}
			action = "volunteer_assigned"
		}
	}

	if req.Status != nil {
		if err := is.applyStatus(incident, *req.Status); err != nil {
			return nil, err
		}
		action = "status_" + string(*req.Status)
	}

	incident.UpdatedAt = is.now()
	if err := is.incidentRepo.Update(ctx, incident, expected); err != nil {
		return nil, incidentWriteError(err)
	}

	is.afterStatusChange(ctx, incident, wasFinished)
	is.notifier.IncidentUpdated(ctx, incident, action, actor.UserID.Hex())
	return incident, nil
}

// ListNewIncidents is the polling fallback for responders: open incidents
// nobody has accepted yet.
func (is *IncidentService) ListNewIncidents(ctx context.Context, actor models.Actor) ([]models.Incident, error) {
	if !actor.IsAdmin() {
		if err := is.requireVerifiedVolunteer(ctx, actor); err != nil {
			return nil, err
		}
	}

	incidents, err := is.incidentRepo.List(ctx, models.IncidentFilter{
		Status:         models.IncidentStatusOpen,
		UnassignedOnly: true,
	})
	if err != nil {
		return nil, utils.NewDatabaseError("list incidents", err)
	}
	return incidents, nil
}

// ListVolunteerIncidents returns incidents assigned to the volunteer user.
func (is *IncidentService) ListVolunteerIncidents(ctx context.Context, actor models.Actor, userID string) ([]models.Incident, error) {
	id, err := utils.ParseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if !actor.IsSelfOrAdmin(id) {
		return nil, utils.NewForbiddenError("Access denied")
	}

	incidents, err := is.incidentRepo.List(ctx, models.IncidentFilter{AssignedVolunteerID: id.Hex()})
	if err != nil {
		return nil, utils.NewDatabaseError("list incidents", err)
	}
	return incidents, nil
}

// AcceptIncident lets a verified volunteer take an unassigned incident.
func (is *IncidentService) AcceptIncident(ctx context.Context, actor models.Actor, incidentID string, req models.AcceptIncidentRequest) (*models.Incident, error) {
	if !actor.Can(models.CapAcceptIncident) {
		return nil, utils.NewForbiddenError("Only volunteers can accept incidents")
	}

	id, err := utils.ParseObjectID(incidentID, "incident")
	if err != nil {
		return nil, err
	}

	profile, err := is.volunteerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewDatabaseError("find volunteer", err)
	}
	if !profile.IsVerified() {
		return nil, utils.NewForbiddenError("Volunteer is not verified")
	}
	if req.VolunteerID != "" && req.VolunteerID != actor.UserID.Hex() && req.VolunteerID != profile.ID.Hex() {
		return nil, utils.NewForbiddenError("Volunteers can only accept incidents for themselves")
	}

	incident, err := is.incidentRepo.AssignVolunteer(ctx, id, actor.UserID, is.now())
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, utils.NewConflictError("Incident is already assigned or no longer open")
		}
		return nil, incidentWriteError(err)
	}

	logrus.WithFields(logrus.Fields{
		"incident_id":  incident.ID.Hex(),
		"volunteer_id": actor.UserID.Hex(),
	}).Info("Incident accepted")

	is.notifier.IncidentUpdated(ctx, incident, "accepted", actor.UserID.Hex())
	return incident, nil
}

// UpdateVolunteerStatus moves the caller's assigned incident to
// in-progress or resolved.
func (is *IncidentService) UpdateVolunteerStatus(ctx context.Context, actor models.Actor, incidentID string, req models.VolunteerStatusUpdateRequest) (*models.Incident, error) {
	if err := is.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Status != models.IncidentStatusInProgress && req.Status != models.IncidentStatusResolved {
		return nil, utils.NewBadRequestError("status must be in-progress or resolved")
	}

	incident, err := is.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.AssignedVolunteerID == nil || *incident.AssignedVolunteerID != actor.UserID {
		return nil, utils.NewForbiddenError("Incident is not assigned to you")
	}

	profile, err := is.volunteerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewDatabaseError("find volunteer", err)
	}
	if !profile.IsVerified() {
		return nil, utils.NewForbiddenError("Volunteer is not verified")
	}

	expected := incident.Status
	wasFinished := incident.Status.IsFinished()
	if err := is.applyStatus(incident, req.Status); err != nil {
		return nil, err
	}
	if incident.Status == expected {
		return incident, nil
	}

	incident.UpdatedAt = is.now()
	if err := is.incidentRepo.Update(ctx, incident, expected); err != nil {
		return nil, incidentWriteError(err)
	}

	is.afterStatusChange(ctx, incident, wasFinished)
	is.notifier.IncidentUpdated(ctx, incident, "status_"+string(req.Status), actor.UserID.Hex())
	return incident, nil
}

func (is *IncidentService) applyStatus(incident *models.Incident, next models.IncidentStatus) error {
	if !next.Valid() {
		return utils.NewBadRequestError(fmt.Sprintf("invalid status %q", next))
	}
	if !incident.Status.CanTransitionTo(next) {
		return utils.NewConflictError(fmt.Sprintf("Cannot move incident from %s to %s", incident.Status, next))
	}

	incident.Status = next
	if next.IsFinished() && incident.ResolvedAt == nil {
		incident.ResolvedAt = utils.TimePtr(is.now())
	}
	return nil
}

// afterStatusChange releases officers once an incident is finished.
func (is *IncidentService) afterStatusChange(ctx context.Context, incident *models.Incident, wasFinished bool) {
	if wasFinished || !incident.Status.IsFinished() {
		return
	}

	n, err := is.officerRepo.CompleteAssignments(ctx, incident.ID, is.now())
	if err != nil {
		logrus.WithError(err).WithField("incident_id", incident.ID.Hex()).Error("Failed to complete officer assignments")
		return
	}
	if n > 0 {
		logrus.WithFields(logrus.Fields{
			"incident_id": incident.ID.Hex(),
			"officers":    n,
		}).Info("Officer assignments completed")
	}
}

// resolveVerifiedVolunteer accepts a profile id or a user id and returns
// the volunteer's user id.
func (is *IncidentService) resolveVerifiedVolunteer(ctx context.Context, rawID string) (primitive.ObjectID, error) {
	id, err := utils.ParseObjectID(rawID, "volunteer")
	if err != nil {
		return primitive.NilObjectID, err
	}

	profile, err := is.volunteerRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		profile, err = is.volunteerRepo.GetByUserID(ctx, id)
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return primitive.NilObjectID, utils.NewNotFoundError("Volunteer")
	}
	if err != nil {
		return primitive.NilObjectID, utils.NewDatabaseError("find volunteer", err)
	}

	if !profile.IsVerified() {
		return primitive.NilObjectID, utils.NewForbiddenError("Volunteer is not verified")
	}
	return profile.UserID, nil
}

func (is *IncidentService) requireVerifiedVolunteer(ctx context.Context, actor models.Actor) error {
	if actor.Role != models.RoleVolunteer {
		return utils.NewForbiddenError("Only volunteers can view new incidents")
	}
	profile, err := is.volunteerRepo.GetByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return utils.NewDatabaseError("find volunteer", err)
	}
	if !profile.IsVerified() {
		return utils.NewForbiddenError("Volunteer is not verified")
	}
	return nil
}

func (is *IncidentService) getIncident(ctx context.Context, incidentID string) (*models.Incident, error) {
	id, err := utils.ParseObjectID(incidentID, "incident")
	if err != nil {
		return nil, err
	}

	incident, err := is.incidentRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Incident")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find incident", err)
	}
	return incident, nil
}

func incidentWriteError(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return utils.NewNotFoundError("Incident")
	case errors.Is(err, interfaces.ErrConflict):
		return utils.NewConflictError("Incident was modified concurrently, retry")
	default:
		return utils.NewDatabaseError("update incident", err)
	}
}

func normalizeLocation(loc *models.IncidentLocation) *models.IncidentLocation {
	if loc == nil {
		return nil
	}
	if loc.Point == nil && strings.TrimSpace(loc.Text) == "" {
		return nil
	}
	if loc.Point == nil {
		return models.TextLocation(strings.TrimSpace(loc.Text))
	}
	return loc
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
