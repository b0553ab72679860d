package controllers

import (
	"net/http"

	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// ============== PUBLIC AUTHENTICATION ENDPOINTS ==============

// Signup handles user registration
// @Summary Register a new user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /auth/signup [post]
func (ac *AuthController) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := ac.authService.Signup(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	// auth responses carry their own envelope
	c.JSON(http.StatusCreated, response)
}

// Login handles user authentication
// @Summary Login user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.APIResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := ac.authService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RefreshToken exchanges a refresh token for a new pair
// @Summary Refresh access token
// @Tags Authentication
// @Param request body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.APIResponse
// @Router /auth/refresh [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := ac.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the caller's access token and the optional refresh token
// @Summary Logout user
// @Tags Authentication
// @Security BearerAuth
// @Success 200 {object} models.APIResponse
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	// body is optional
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	if err := ac.authService.Logout(c.Request.Context(), actor, req.RefreshToken); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged out successfully", nil)
}
