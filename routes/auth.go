package routes

import (
	"disasterguardian/controllers"
	"disasterguardian/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes configures account and password reset routes
func SetupAuthRoutes(router *gin.RouterGroup, authController *controllers.AuthController, resetController *controllers.PasswordResetController, authMiddleware *middleware.AuthMiddleware, limits *limiters) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", limit(limits.auth), authController.Signup)
		auth.POST("/login", limit(limits.auth), authController.Login)
		auth.POST("/refresh", limit(limits.auth), authController.RefreshToken)
		auth.POST("/logout", authMiddleware.RequireAuth(), authController.Logout)
	}

	reset := router.Group("/forgot-password")
	reset.Use(limit(limits.otp))
	{
		reset.POST("/request-otp", resetController.RequestOTP)
		reset.POST("/verify-otp", resetController.VerifyOTP)
		reset.POST("/reset-password", resetController.ResetPassword)
		reset.POST("/resend-otp", resetController.ResendOTP)
	}
}
