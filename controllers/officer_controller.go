package controllers

import (
	"strconv"

	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type OfficerController struct {
	officerService *services.OfficerService
}

func NewOfficerController(officerService *services.OfficerService) *OfficerController {
	return &OfficerController{officerService: officerService}
}

// ListOfficers accepts ?type= and ?status=
func (oc *OfficerController) ListOfficers(c *gin.Context) {
	officers, err := oc.officerService.ListOfficers(c.Request.Context(), models.OfficerFilter{
		Type:   models.OfficerType(c.Query("type")),
		Status: models.OfficerStatus(c.Query("status")),
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Officers retrieved successfully", officers)
}

// ListAvailable returns available officers, nearest first when ?lat=&lng= are given
// @Summary List available officers
// @Tags Officers
// @Security BearerAuth
// @Param type query string false "Officer type"
// @Param lat query number false "Latitude"
// @Param lng query number false "Longitude"
// @Success 200 {object} models.APIResponse{data=[]models.Officer}
// @Router /officers/available/list [get]
func (oc *OfficerController) ListAvailable(c *gin.Context) {
	var near *models.GeoPoint
	if c.Query("lat") != "" || c.Query("lng") != "" {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			utils.BadRequestResponse(c, "lat and lng must both be numbers")
			return
		}
		near = &models.GeoPoint{Lat: lat, Lng: lng}
	}

	officers, err := oc.officerService.ListAvailable(c.Request.Context(), models.OfficerType(c.Query("type")), near)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Available officers retrieved successfully", officers)
}

func (oc *OfficerController) GetOfficer(c *gin.Context) {
	officer, err := oc.officerService.GetOfficer(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Officer retrieved successfully", officer)
}

func (oc *OfficerController) CreateOfficer(c *gin.Context) {
	var req models.CreateOfficerRequest
	if !bindJSON(c, &req) {
		return
	}

	officer, err := oc.officerService.CreateOfficer(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Officer created successfully", officer)
}

func (oc *OfficerController) UpdateOfficer(c *gin.Context) {
	var req models.UpdateOfficerRequest
	if !bindJSON(c, &req) {
		return
	}

	officer, err := oc.officerService.UpdateOfficer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Officer updated successfully", officer)
}

func (oc *OfficerController) DeleteOfficer(c *gin.Context) {
	if err := oc.officerService.DeleteOfficer(c.Request.Context(), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Officer deleted successfully", nil)
}

// BulkAssign attaches officers to an incident under a risk zone
// @Summary Assign officers to incident
// @Tags Officers
// @Security BearerAuth
// @Param request body models.BulkAssignOfficersRequest true "Assignment"
// @Success 200 {object} models.APIResponse{data=models.BulkAssignResult}
// @Failure 409 {object} models.APIResponse
// @Router /officers/bulk/assign-to-incident [post]
func (oc *OfficerController) BulkAssign(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.BulkAssignOfficersRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := oc.officerService.BulkAssign(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Officers assigned successfully", result)
}
