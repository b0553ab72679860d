package controllers

import (
	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type IncidentController struct {
	incidentService *services.IncidentService
}

func NewIncidentController(incidentService *services.IncidentService) *IncidentController {
	return &IncidentController{incidentService: incidentService}
}

// CreateIncident files an SOS or risk report
// @Summary Report an incident
// @Tags Incidents
// @Security BearerAuth
// @Param request body models.CreateIncidentRequest true "Incident"
// @Success 201 {object} models.APIResponse{data=models.Incident}
// @Failure 400 {object} models.APIResponse
// @Router /incidents [post]
func (ic *IncidentController) CreateIncident(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.CreateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}

	incident, err := ic.incidentService.CreateIncident(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Incident reported successfully", incident)
}

// ListIncidents filters by reporterId, status and type
// @Summary List incidents
// @Tags Incidents
// @Security BearerAuth
// @Param reporterId query string false "Reporter"
// @Param status query string false "Status"
// @Param type query string false "SOS or RISK"
// @Success 200 {object} models.APIResponse{data=[]models.Incident}
// @Router /incidents [get]
func (ic *IncidentController) ListIncidents(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	filter := models.IncidentFilter{
		ReporterID: c.Query("reporterId"),
		Status:     models.IncidentStatus(c.Query("status")),
		Type:       models.IncidentType(c.Query("type")),
		Limit:      queryLimit(c),
	}

	incidents, err := ic.incidentService.ListIncidents(c.Request.Context(), actor, filter)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Incidents retrieved successfully", incidents, &models.MetaData{
		Total: int64(len(incidents)),
		Count: len(incidents),
	})
}

// GetIncident returns one incident
// @Summary Get incident
// @Tags Incidents
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} models.APIResponse{data=models.Incident}
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /incidents/{id} [get]
func (ic *IncidentController) GetIncident(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	incident, err := ic.incidentService.GetIncident(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Incident retrieved successfully", incident)
}

// UpdateIncident is the admin triage update
// @Summary Update incident
// @Tags Incidents
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param request body models.UpdateIncidentRequest true "Fields"
// @Success 200 {object} models.APIResponse{data=models.Incident}
// @Failure 409 {object} models.APIResponse
// @Router /incidents/{id} [put]
func (ic *IncidentController) UpdateIncident(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.UpdateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}

	incident, err := ic.incidentService.UpdateIncident(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Incident updated successfully", incident)
}
