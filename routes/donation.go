package routes

import (
	"disasterguardian/controllers"
	"disasterguardian/middleware"
	"disasterguardian/models"

	"github.com/gin-gonic/gin"
)

// SetupDonationRoutes: creation is public, reporting needs an admin token
func SetupDonationRoutes(router *gin.RouterGroup, donationController *controllers.DonationController, authMiddleware *middleware.AuthMiddleware, limits *limiters) {
	donations := router.Group("/donations")
	donations.POST("", limit(limits.api), donationController.CreateDonation)

	reports := donations.Group("")
	reports.Use(authMiddleware.RequireAuth(), middleware.RequireCapability(models.CapViewDonations))
	{
		reports.GET("", donationController.ListDonations)
		reports.GET("/stats", donationController.Stats)
	}
}
