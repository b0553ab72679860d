package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorHandler recovers panics and turns errors attached with c.Error
// into the response envelope when the handler wrote nothing.
type ErrorHandler struct {
	environment string
	logger      *logrus.Logger
}

func NewErrorHandler(environment string, logger *logrus.Logger) *ErrorHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorHandler{
		environment: environment,
		logger:      logger,
	}
}

// Handle returns the error handling middleware
func (eh *ErrorHandler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				eh.handlePanic(c, err)
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			eh.processError(c, c.Errors.Last().Err)
		}
	}
}

func (eh *ErrorHandler) handlePanic(c *gin.Context, err interface{}) {
	fields := logrus.Fields{
		"panic":      err,
		"request_id": RequestID(c),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}
	if eh.environment != "production" {
		fields["stack"] = string(debug.Stack())
	}
	eh.logger.WithFields(fields).Error("Panic recovered")

	if !c.Writer.Written() {
		utils.InternalServerErrorResponse(c, "")
	}
	c.Abort()
}

func (eh *ErrorHandler) processError(c *gin.Context, err error) {
	if _, ok := utils.AsServiceError(err); ok {
		utils.HandleServiceError(c, err)
		return
	}

	switch {
	case mongo.IsDuplicateKeyError(err), errors.Is(err, interfaces.ErrDuplicate):
		utils.ConflictResponse(c, "Resource already exists")
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, interfaces.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case mongo.IsTimeout(err):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, models.ErrCodeInternal, "Database operation timed out", nil)
	case mongo.IsNetworkError(err):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, models.ErrCodeInternal, "Database connection error", nil)
	default:
		eh.logger.WithError(err).WithField("request_id", RequestID(c)).Error("Unhandled error")
		utils.InternalServerErrorResponse(c, "")
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, "Endpoint not found", gin.H{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	}
}

// MethodNotAllowedHandler handles 405 errors
func MethodNotAllowedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", gin.H{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	}
}
