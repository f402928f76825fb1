package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"meteobot.app/internal/ports"
	errorspkg "meteobot.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError handles different types of application errors
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	var appErr *errorspkg.AppError
	var statusCode int
	var message string

	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	switch appErr.Type {
	case errorspkg.ValidationError:
		statusCode = http.StatusBadRequest
		message = appErr.Message
	case errorspkg.NotFoundError:
		statusCode = http.StatusNotFound
		message = appErr.Message
	case errorspkg.ExternalAPIError:
		statusCode = http.StatusServiceUnavailable
		message = "External service unavailable"
	default:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}

// getStats handles GET /api/stats requests
func (s *HTTPServerAdapter) getStats(c *gin.Context) {
	stats, err := s.metricsCollector.GetMetrics(c.Request.Context())
	if err != nil {
		s.logger.Error("Error getting stats", ports.F("error", err))
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
