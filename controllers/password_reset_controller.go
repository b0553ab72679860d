package controllers

import (
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

// PasswordResetController serves the public forgot-password flow.
type PasswordResetController struct {
	resetService *services.PasswordResetService
}

func NewPasswordResetController(resetService *services.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{resetService: resetService}
}

// RequestOTP issues a reset code by SMS or email
// @Summary Request password reset code
// @Tags Password Reset
// @Param request body models.OTPRequest true "Account identifier"
// @Success 200 {object} models.APIResponse{data=models.OTPIssueResponse}
// @Failure 404 {object} models.APIResponse
// @Router /forgot-password/request-otp [post]
func (pc *PasswordResetController) RequestOTP(c *gin.Context) {
	pc.issue(c, "OTP sent successfully")
}

// ResendOTP replaces any outstanding code with a fresh one
func (pc *PasswordResetController) ResendOTP(c *gin.Context) {
	pc.issue(c, "OTP resent successfully")
}

func (pc *PasswordResetController) issue(c *gin.Context, message string) {
	var req models.OTPRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := pc.resetService.RequestOTP(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, message, response)
}

// VerifyOTP checks a code without consuming it
// @Summary Verify password reset code
// @Tags Password Reset
// @Param request body models.VerifyOTPRequest true "Code"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /forgot-password/verify-otp [post]
func (pc *PasswordResetController) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := pc.resetService.VerifyOTP(c.Request.Context(), req); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP verified successfully", gin.H{"verified": true})
}

// ResetPassword sets a new password and consumes the code
// @Summary Reset password
// @Tags Password Reset
// @Param request body models.ResetPasswordRequest true "Code and new password"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /forgot-password/reset-password [post]
func (pc *PasswordResetController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := pc.resetService.ResetPassword(c.Request.Context(), req); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password reset successfully", nil)
}
