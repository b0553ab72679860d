package routes

import (
	"disasterguardian/controllers"
	"disasterguardian/middleware"
	"disasterguardian/models"

	"github.com/gin-gonic/gin"
)

// SetupIncidentRoutes configures incident reporting and triage routes
func SetupIncidentRoutes(router *gin.RouterGroup, incidentController *controllers.IncidentController) {
	incidents := router.Group("/incidents")
	{
		incidents.POST("", middleware.RequireCapability(models.CapReportIncident), incidentController.CreateIncident)
		incidents.GET("", incidentController.ListIncidents)
		incidents.GET("/:id", incidentController.GetIncident)
		incidents.PUT("/:id", middleware.RequireCapability(models.CapManageIncidents), incidentController.UpdateIncident)
	}
}

// SetupVolunteerRoutes configures the volunteer lifecycle and responder routes
func SetupVolunteerRoutes(router *gin.RouterGroup, volunteerController *controllers.VolunteerController) {
	volunteers := router.Group("/volunteers")

	volunteers.POST("/apply", volunteerController.Apply)
	volunteers.GET("/profile/:userId", volunteerController.GetProfile)

	// Review (admin)
	review := volunteers.Group("")
	review.Use(middleware.RequireCapability(models.CapReviewVolunteers))
	{
		review.GET("", volunteerController.ListVolunteers)
		review.GET("/pending", volunteerController.ListPending)
		review.PUT("/:id/verify", volunteerController.Verify)
	}
	volunteers.POST("/notify", middleware.RequireCapability(models.CapNotifyVolunteers), volunteerController.Notify)

	// Responder incidents
	incidents := volunteers.Group("/incidents")
	{
		incidents.GET("/new", volunteerController.NewIncidents)
		incidents.GET("/:id", volunteerController.GetIncident)
		incidents.POST("/:id/accept", volunteerController.AcceptIncident)
		incidents.PUT("/:id/status", volunteerController.UpdateIncidentStatus)
	}
	volunteers.GET("/user/:userId/incidents", volunteerController.UserIncidents)
}

// SetupOfficerRoutes configures responder officer routes (admin only)
func SetupOfficerRoutes(router *gin.RouterGroup, officerController *controllers.OfficerController) {
	officers := router.Group("/officers")
	officers.Use(middleware.RequireCapability(models.CapManageOfficers))
	{
		officers.GET("", officerController.ListOfficers)
		officers.POST("", officerController.CreateOfficer)
		officers.GET("/available/list", officerController.ListAvailable)
		officers.POST("/bulk/assign-to-incident", officerController.BulkAssign)
		officers.GET("/:id", officerController.GetOfficer)
		officers.PUT("/:id", officerController.UpdateOfficer)
		officers.DELETE("/:id", officerController.DeleteOfficer)
	}
}
