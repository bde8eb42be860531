package api

import (
	"errors"

	"genai-customer-service/backend/internal/service"
	apperrors "genai-customer-service/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// FollowupHandler handles the follow-up survey endpoint
type FollowupHandler struct {
	followup *service.FollowupService
}

// NewFollowupHandler creates a new follow-up handler
func NewFollowupHandler(followup *service.FollowupService) *FollowupHandler {
	return &FollowupHandler{followup: followup}
}

// RegisterRoutes registers the follow-up routes
func (h *FollowupHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/followup", h.GenerateFollowup)
}

type followupRequest struct {
	UserID  *uint  `json:"user_id"`
	Channel string `json:"channel"`
}

// GenerateFollowup generates and mock-sends a survey for the user's last turn
func (h *FollowupHandler) GenerateFollowup(c *gin.Context) {
	var req followupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == nil {
		c.Error(apperrors.NewBadRequestError("USER_ID_REQUIRED", "user_id required"))
		return
	}

	result, err := h.followup.Generate(c.Request.Context(), *req.UserID, req.Channel)
	if err != nil {
		if errors.Is(err, service.ErrNoConversation) {
			c.Error(apperrors.NewNotFoundError("NO_CONVERSATION", "No conversation found"))
			return
		}
		c.Error(apperrors.NewInternalServerError("FOLLOWUP_FAILED", "Failed to generate follow-up"))
		return
	}

	c.JSON(200, result)
}
