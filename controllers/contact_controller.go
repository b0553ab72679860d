package controllers

import (
	"disasterguardian/middleware"
	"disasterguardian/models"
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

// ContactController manages emergency contacts notified on SOS.
type ContactController struct {
	contactService *services.ContactService
}

func NewContactController(contactService *services.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

func (cc *ContactController) ListContacts(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	contacts, err := cc.contactService.ListContacts(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Contacts retrieved successfully", contacts)
}

func (cc *ContactController) CreateContact(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.CreateContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := cc.contactService.CreateContact(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Contact created successfully", contact)
}

func (cc *ContactController) UpdateContact(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	var req models.UpdateContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := cc.contactService.UpdateContact(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Contact updated successfully", contact)
}

func (cc *ContactController) DeleteContact(c *gin.Context) {
	actor := middleware.MustCurrentUser(c)

	if err := cc.contactService.DeleteContact(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Contact deleted successfully", nil)
}
