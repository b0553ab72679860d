package controllers

import (
	"disasterguardian/services"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

type SmsLogController struct {
	smsLogService *services.SmsLogService
}

func NewSmsLogController(smsLogService *services.SmsLogService) *SmsLogController {
	return &SmsLogController{smsLogService: smsLogService}
}

// ListLogs returns the outbound SMS audit trail, optionally for one incident
// @Summary List SMS logs
// @Tags SMS Logs
// @Security BearerAuth
// @Param incidentId query string false "Incident ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} models.APIResponse{data=[]models.SmsLog}
// @Router /sms-logs [get]
func (sc *SmsLogController) ListLogs(c *gin.Context) {
	logs, err := sc.smsLogService.ListLogs(c.Request.Context(), c.Query("incidentId"), queryLimit(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "SMS logs retrieved successfully", logs)
}
