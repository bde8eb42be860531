package api

import (
	"errors"
	"strconv"

	"genai-customer-service/backend/internal/service"
	apperrors "genai-customer-service/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler handles the analytics endpoint
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// RegisterRoutes registers the analytics routes
func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/analytics/:user_id", h.GetAnalytics)
}

// GetAnalytics returns aggregated metrics for a user, recomputed on each call
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_USER_ID", "Invalid user ID"))
		return
	}

	report, err := h.analytics.GetUserAnalytics(uint(userID))
	if err != nil {
		if errors.Is(err, service.ErrNoConversations) {
			c.Error(apperrors.NewNotFoundError("NO_DATA", "No data for user"))
			return
		}
		c.Error(apperrors.FromError(err))
		return
	}

	c.JSON(200, report)
}
