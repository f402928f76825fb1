package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"meteobot.app/internal/adapters/infrastructure"
	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
	"meteobot.app/pkg/validation"
)

// WeatherRequest is the query of GET /api/weather
type WeatherRequest struct {
	Town string `form:"town" binding:"required,town"`
}

// WeatherResponse carries the reply a chat user would receive for Town
type WeatherResponse struct {
	Town  string `json:"town"`
	Reply string `json:"reply"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string                        `json:"status"`
	Components map[string]ports.HealthStatus `json:"components"`
}

// validateTown applies the town rules the chat poller uses before answering
func validateTown(fl validator.FieldLevel) bool {
	return validation.IsValidTown(fl.Field().String())
}

// RegisterValidators installs the custom binding tags used by the handlers
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("town", validateTown)
	}
}

// getWeather handles GET /api/weather requests
func (s *HTTPServerAdapter) getWeather(c *gin.Context) {
	var req WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.logger.Debug("Weather request rejected", ports.F("error", err))
		s.handleError(c, errors.NewValidationError("town parameter is required and must be at most 100 characters"))
		return
	}

	reply := s.weatherUseCase.GetWeather(c.Request.Context(), req.Town)

	c.JSON(http.StatusOK, WeatherResponse{Town: req.Town, Reply: reply})
}

// getHealth handles GET /health requests
func (s *HTTPServerAdapter) getHealth(c *gin.Context) {
	components := s.healthChecker.CheckAll(c.Request.Context())

	response := HealthResponse{Status: "healthy", Components: components}
	statusCode := http.StatusOK
	if !infrastructure.Healthy(components) {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// clearGeocodeCache handles DELETE /api/geocode-cache. Towns already held by
// the town cache keep their coordinates.
func (s *HTTPServerAdapter) clearGeocodeCache(c *gin.Context) {
	if err := s.geocodeCache.Clear(c.Request.Context()); err != nil {
		s.handleError(c, err)
		return
	}

	s.logger.Info("Geocode cache cleared")
	c.Status(http.StatusNoContent)
}
