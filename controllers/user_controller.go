package controllers

import (
	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService *services.UserService
}

func NewUserController(userService *services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// GetProfile returns the current user
// @Summary Get current user profile
// @Tags Users
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.UserProfile}
// @Router /users/me [get]
func (uc *UserController) GetProfile(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	profile, err := uc.userService.GetUserProfile(c.Request.Context(), actor.UserID.Hex())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", profile)
}

// UpdateProfile updates the current user's contact details
// @Summary Update current user profile
// @Tags Users
// @Security BearerAuth
// @Param request body models.UpdateUserRequest true "Profile fields"
// @Success 200 {object} models.APIResponse{data=models.UserProfile}
// @Router /users/me [put]
func (uc *UserController) UpdateProfile(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := uc.userService.UpdateUserProfile(c.Request.Context(), actor.UserID.Hex(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", profile)
}
