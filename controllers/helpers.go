package controllers

import (
	"strconv"

	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// bindJSON decodes the body and writes a 400 on failure. Field-level checks
// happen in the services.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	return true
}

// queryLimit reads ?limit=, clamped to maxListLimit.
func queryLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)), 10, 64)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
