package controllers

import (
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type DonationController struct {
	donationService *services.DonationService
}

func NewDonationController(donationService *services.DonationService) *DonationController {
	return &DonationController{donationService: donationService}
}

// CreateDonation records a public donation
// @Summary Create donation
// @Tags Donations
// @Param request body models.CreateDonationRequest true "Donation"
// @Success 201 {object} models.APIResponse{data=models.Donation}
// @Failure 400 {object} models.APIResponse
// @Router /donations [post]
func (dc *DonationController) CreateDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if !bindJSON(c, &req) {
		return
	}

	donation, err := dc.donationService.CreateDonation(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Donation recorded successfully", donation)
}

func (dc *DonationController) ListDonations(c *gin.Context) {
	donations, err := dc.donationService.ListDonations(c.Request.Context(), queryLimit(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Donations retrieved successfully", donations)
}

func (dc *DonationController) Stats(c *gin.Context) {
	stats, err := dc.donationService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Donation statistics retrieved successfully", stats)
}
