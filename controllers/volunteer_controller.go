package controllers

import (
	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

// VolunteerController covers the volunteer lifecycle and the responder
// side of incidents.
type VolunteerController struct {
	volunteerService *services.VolunteerService
	incidentService  *services.IncidentService
}

func NewVolunteerController(volunteerService *services.VolunteerService, incidentService *services.IncidentService) *VolunteerController {
	return &VolunteerController{
		volunteerService: volunteerService,
		incidentService:  incidentService,
	}
}

// ============== PROFILES ==============

// Apply submits a volunteer application
// @Summary Apply as volunteer
// @Tags Volunteers
// @Security BearerAuth
// @Param request body models.VolunteerApplicationRequest true "Application"
// @Success 201 {object} models.APIResponse{data=models.VolunteerProfile}
// @Failure 409 {object} models.APIResponse
// @Router /volunteers/apply [post]
func (vc *VolunteerController) Apply(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.VolunteerApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := vc.volunteerService.Apply(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Application submitted successfully", profile)
}

func (vc *VolunteerController) GetProfile(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	view, err := vc.volunteerService.GetProfile(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Volunteer profile retrieved successfully", view)
}

// ListVolunteers accepts an optional ?status= filter
func (vc *VolunteerController) ListVolunteers(c *gin.Context) {
	vc.list(c, models.VolunteerStatus(c.Query("status")))
}

func (vc *VolunteerController) ListPending(c *gin.Context) {
	vc.list(c, models.VolunteerStatusPending)
}

func (vc *VolunteerController) list(c *gin.Context, status models.VolunteerStatus) {
	actor := middleware.MustCurrentUser(c)

	volunteers, err := vc.volunteerService.ListVolunteers(c.Request.Context(), actor, status)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Volunteers retrieved successfully", volunteers, &models.MetaData{
		Total: int64(len(volunteers)),
		Count: len(volunteers),
	})
}

// Verify sets the review outcome of a profile
// @Summary Verify volunteer
// @Tags Volunteers
// @Security BearerAuth
// @Param id path string true "Volunteer profile ID"
// @Param request body models.VerifyVolunteerRequest true "Status"
// @Success 200 {object} models.APIResponse{data=models.VolunteerProfile}
// @Router /volunteers/{id}/verify [put]
func (vc *VolunteerController) Verify(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.VerifyVolunteerRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := vc.volunteerService.Verify(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Volunteer status updated successfully", profile)
}

// Notify dispatches a message to a set of volunteers over the event channel
// @Summary Notify volunteers
// @Tags Volunteers
// @Security BearerAuth
// @Param request body models.NotifyVolunteersRequest true "Dispatch"
// @Success 200 {object} models.APIResponse{data=models.VolunteerNotification}
// @Router /volunteers/notify [post]
func (vc *VolunteerController) Notify(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.NotifyVolunteersRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := vc.volunteerService.Notify(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Volunteers notified successfully", note)
}

// ============== RESPONDER INCIDENTS ==============

// NewIncidents is the polling fallback for missed new-incident events
func (vc *VolunteerController) NewIncidents(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	incidents, err := vc.incidentService.ListNewIncidents(c.Request.Context(), actor)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "New incidents retrieved successfully", incidents)
}

func (vc *VolunteerController) GetIncident(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	incident, err := vc.incidentService.GetIncident(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Incident retrieved successfully", incident)
}

func (vc *VolunteerController) UserIncidents(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	incidents, err := vc.incidentService.ListVolunteerIncidents(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Assigned incidents retrieved successfully", incidents)
}

// AcceptIncident assigns an open incident to the calling volunteer
// @Summary Accept incident
// @Tags Volunteers
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} models.APIResponse{data=models.Incident}
// @Failure 403 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /volunteers/incidents/{id}/accept [post]
func (vc *VolunteerController) AcceptIncident(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.AcceptIncidentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	incident, err := vc.incidentService.AcceptIncident(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Incident accepted successfully", incident)
}

func (vc *VolunteerController) UpdateIncidentStatus(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.VolunteerStatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	incident, err := vc.incidentService.UpdateVolunteerStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Incident status updated successfully", incident)
}
