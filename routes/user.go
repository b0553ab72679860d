package routes

import (
	"disasterguardian/controllers"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes configures user-related routes
func SetupUserRoutes(router *gin.RouterGroup, userController *controllers.UserController) {
	users := router.Group("/users")
	{
		users.GET("/me", userController.GetProfile)
		users.PUT("/me", userController.UpdateProfile)
	}
}

// SetupContactRoutes configures emergency contact routes
func SetupContactRoutes(router *gin.RouterGroup, contactController *controllers.ContactController) {
	contacts := router.Group("/contacts")
	{
		contacts.GET("/:userId", contactController.ListContacts)
		contacts.POST("", contactController.CreateContact)
		contacts.PUT("/:id", contactController.UpdateContact)
		contacts.DELETE("/:id", contactController.DeleteContact)
	}
}
