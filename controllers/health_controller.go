package controllers

import (
	"context"
	"net/http"
	"time"

	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"

	checkTimeout = 3 * time.Second
)

// HealthCheck probes one dependency. A nil check marks it disabled.
type HealthCheck func(ctx context.Context) error

// StatsFunc contributes a section to the detailed health report.
type StatsFunc func(ctx context.Context) interface{}

type HealthController struct {
	version   string
	startedAt time.Time
	checks    map[string]HealthCheck
	stats     map[string]StatsFunc
}

func NewHealthController(version string) *HealthController {
	return &HealthController{
		version:   version,
		startedAt: time.Now(),
		checks:    make(map[string]HealthCheck),
		stats:     make(map[string]StatsFunc),
	}
}

// AddCheck registers a dependency probe. Call before serving traffic.
func (hc *HealthController) AddCheck(name string, check HealthCheck) {
	hc.checks[name] = check
}

func (hc *HealthController) AddStats(name string, fn StatsFunc) {
	hc.stats[name] = fn
}

// HealthCheck reports overall status; 503 when any enabled dependency fails.
// @Summary Health check
// @Tags Health
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (hc *HealthController) HealthCheck(c *gin.Context) {
	response := utils.HealthCheckResponse(hc.runChecks(c.Request.Context()), hc.version, hc.uptime())
	c.JSON(statusCode(response.Status), response)
}

// DetailedHealthCheck adds worker, hub and database statistics.
func (hc *HealthController) DetailedHealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	response := utils.HealthCheckResponse(hc.runChecks(ctx), hc.version, hc.uptime())

	details := make(map[string]interface{}, len(hc.stats))
	for name, fn := range hc.stats {
		details[name] = fn(ctx)
	}

	c.JSON(statusCode(response.Status), gin.H{
		"status":    response.Status,
		"timestamp": response.Timestamp,
		"services":  response.Services,
		"version":   response.Version,
		"uptime":    response.Uptime,
		"details":   details,
	})
}

func (hc *HealthController) runChecks(ctx context.Context) map[string]string {
	services := make(map[string]string, len(hc.checks))
	for name, check := range hc.checks {
		if check == nil {
			services[name] = statusDisabled
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			services[name] = statusUnhealthy
			continue
		}
		services[name] = statusHealthy
	}
	return services
}

func (hc *HealthController) uptime() string {
	return utils.FormatDuration(time.Since(hc.startedAt))
}

func statusCode(status string) int {
	if status == statusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
