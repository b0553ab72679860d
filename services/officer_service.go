package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfficerService struct {
	officerRepo  interfaces.OfficerRepository
	incidentRepo interfaces.IncidentRepository
	notifier     *NotificationService
	validator    *utils.ValidationService
	now          func() time.Time
}

func NewOfficerService(
	officerRepo interfaces.OfficerRepository,
	incidentRepo interfaces.IncidentRepository,
	notifier *NotificationService,
	validator *utils.ValidationService,
) *OfficerService {
	return &OfficerService{
		officerRepo:  officerRepo,
		incidentRepo: incidentRepo,
		notifier:     notifier,
		validator:    validator,
		now:          time.Now,
	}
}

func (ofs *OfficerService) ListOfficers(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, utils.NewBadRequestError("invalid officer type")
	}
	officers, err := ofs.officerRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.NewDatabaseError("list officers", err)
	}
	return officers, nil
}

// ListAvailable returns available officers, nearest first when a
// reference point is given. Officers without coordinates sort last.
func (ofs *OfficerService) ListAvailable(ctx context.Context, officerType models.OfficerType, near *models.GeoPoint) ([]models.Officer, error) {
	officers, err := ofs.ListOfficers(ctx, models.OfficerFilter{
		Type:   officerType,
		Status: models.OfficerStatusAvailable,
	})
	if err != nil {
		return nil, err
	}
	if near == nil || !utils.IsValidCoordinate(near.Lat, near.Lng) {
		return officers, nil
	}

	distance := func(o models.Officer) float64 {
		if !utils.HasCoordinate(o.Location.Lat, o.Location.Lng) {
			return -1
		}
		return utils.DistanceKm(near.Lat, near.Lng, o.Location.Lat, o.Location.Lng)
	}
	sort.SliceStable(officers, func(i, j int) bool {
		di, dj := distance(officers[i]), distance(officers[j])
		if di < 0 || dj < 0 {
			return dj < 0 && di >= 0
		}
		return di < dj
	})
	return officers, nil
}

func (ofs *OfficerService) GetOfficer(ctx context.Context, officerID string) (*models.Officer, error) {
	id, err := utils.ParseObjectID(officerID, "officer")
	if err != nil {
		return nil, err
	}
	officer, err := ofs.officerRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Officer")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find officer", err)
	}
	return officer, nil
}

func (ofs *OfficerService) CreateOfficer(ctx context.Context, req models.CreateOfficerRequest) (*models.Officer, error) {
	if err := ofs.validator.Validate(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.OfficerStatusAvailable
	}

	now := ofs.now()
	officer := &models.Officer{
		Name:               strings.TrimSpace(req.Name),
		Type:               req.Type,
		OrganizationName:   req.OrganizationName,
		Phone:              utils.NormalizePhoneNumber(req.Phone),
		Email:              utils.NormalizeEmail(req.Email),
		Location:           req.Location,
		Status:             status,
		Skills:             nonNilStrings(req.Skills),
		VehicleType:        req.VehicleType,
		EquipmentAvailable: nonNilStrings(req.EquipmentAvailable),
		CurrentAssignments: []models.OfficerAssignment{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := ofs.officerRepo.Create(ctx, officer); err != nil {
		return nil, utils.NewDatabaseError("create officer", err)
	}

	logrus.WithFields(logrus.Fields{"officer_id": officer.ID.Hex(), "type": officer.Type}).Info("Officer created")
	return officer, nil
}

func (ofs *OfficerService) UpdateOfficer(ctx context.Context, officerID string, req models.UpdateOfficerRequest) (*models.Officer, error) {
	if err := ofs.validator.Validate(req); err != nil {
		return nil, err
	}

	officer, err := ofs.GetOfficer(ctx, officerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		officer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		officer.Type = *req.Type
	}
	if req.OrganizationName != nil {
		officer.OrganizationName = *req.OrganizationName
	}
	if req.Phone != nil {
		officer.Phone = utils.NormalizePhoneNumber(*req.Phone)
	}
	if req.Email != nil {
		officer.Email = utils.NormalizeEmail(*req.Email)
	}
	if req.Location != nil {
		officer.Location = *req.Location
	}
	if req.Status != nil {
		officer.Status = *req.Status
	}
	if req.Skills != nil {
		officer.Skills = req.Skills
	}
	if req.VehicleType != nil {
		officer.VehicleType = *req.VehicleType
	}
	if req.EquipmentAvailable != nil {
		officer.EquipmentAvailable = req.EquipmentAvailable
	}
	officer.UpdatedAt = ofs.now()

	if err := ofs.officerRepo.Update(ctx, officer); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewNotFoundError("Officer")
		}
		return nil, utils.NewDatabaseError("update officer", err)
	}
	return officer, nil
}

func (ofs *OfficerService) DeleteOfficer(ctx context.Context, officerID string) error {
	officer, err := ofs.GetOfficer(ctx, officerID)
	if err != nil {
		return err
	}
	if officer.ActiveAssignmentCount() > 0 {
		return utils.NewConflictError("Officer has active assignments")
	}

	if err := ofs.officerRepo.Delete(ctx, officer.ID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NewNotFoundError("Officer")
		}
		return utils.NewDatabaseError("delete officer", err)
	}

	logrus.WithField("officer_id", officer.ID.Hex()).Info("Officer deleted")
	return nil
}

// BulkAssign puts officers on an incident for a risk zone. Officers already
// on the incident are skipped, so repeating a call changes nothing.
func (ofs *OfficerService) BulkAssign(ctx context.Context, actor models.Actor, req models.BulkAssignOfficersRequest) (*models.BulkAssignResult, error) {
	if err := ofs.validator.Validate(req); err != nil {
		return nil, err
	}
	if !actor.Can(models.CapManageOfficers) {
		return nil, utils.NewForbiddenError("Only administrators can assign officers")
	}

	incidentID, err := utils.ParseObjectID(req.IncidentID, "incident")
	if err != nil {
		return nil, err
	}
	incident, err := ofs.incidentRepo.GetByID(ctx, incidentID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Incident")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find incident", err)
	}
	if incident.Status.IsFinished() {
		return nil, utils.NewConflictError(fmt.Sprintf("Cannot assign officers to a %s incident", incident.Status))
	}

	officers, err := ofs.loadOfficers(ctx, req.OfficerIDs)
	if err != nil {
		return nil, err
	}

	now := ofs.now()
	riskZone := strings.TrimSpace(req.RiskZone)

	entries := make([]models.AssignedOfficer, 0, len(officers))
	for _, o := range officers {
		if incident.HasOfficer(o.ID) {
			continue
		}
		entries = append(entries, models.AssignedOfficer{
			OfficerID:  o.ID,
			Type:       o.Type,
			Name:       o.Name,
			RiskZone:   riskZone,
			AssignedAt: now,
		})
	}

	if len(entries) > 0 {
		incident, err = ofs.incidentRepo.AddOfficers(ctx, incidentID, entries, now)
		if err != nil {
			if errors.Is(err, interfaces.ErrConflict) {
				return nil, utils.NewConflictError("Officer assignment changed concurrently, retry")
			}
			return nil, incidentWriteError(err)
		}
	}

	result := &models.BulkAssignResult{
		Incident: incident,
		Assigned: []string{},
		Skipped:  []string{},
	}

	for _, o := range officers {
		added, err := ofs.officerRepo.AddAssignment(ctx, o.ID, models.OfficerAssignment{
			IncidentID: incidentID,
			RiskZone:   riskZone,
			AssignedAt: now,
			Status:     models.AssignmentActive,
		})
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				result.Skipped = append(result.Skipped, o.ID.Hex())
				continue
			}
			return nil, utils.NewDatabaseError("assign officer", err)
		}
		if added {
			result.Assigned = append(result.Assigned, o.ID.Hex())
		} else {
			result.Skipped = append(result.Skipped, o.ID.Hex())
		}
	}

	logrus.WithFields(logrus.Fields{
		"incident_id": incidentID.Hex(),
		"assigned":    len(result.Assigned),
		"skipped":     len(result.Skipped),
		"risk_zone":   riskZone,
	}).Info("Officers assigned")

	if len(entries) > 0 || len(result.Assigned) > 0 {
		ofs.notifier.IncidentUpdated(ctx, incident, "officers_assigned", actor.UserID.Hex())
	}
	return result, nil
}

// loadOfficers resolves every id, in request order, or fails with 404.
func (ofs *OfficerService) loadOfficers(ctx context.Context, rawIDs []string) ([]models.Officer, error) {
	ids := make([]primitive.ObjectID, 0, len(rawIDs))
	for _, raw := range utils.UniqueStrings(rawIDs) {
		id, err := utils.ParseObjectID(raw, "officer")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	found, err := ofs.officerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, utils.NewDatabaseError("find officers", err)
	}
	byID := make(map[primitive.ObjectID]models.Officer, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}

	officers := make([]models.Officer, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return nil, utils.NewNotFoundError(fmt.Sprintf("Officer %s", id.Hex()))
		}
		officers = append(officers, o)
	}
	return officers, nil
}
