package api

import (
	"errors"
	"strings"

	"genai-customer-service/backend/internal/service"
	apperrors "genai-customer-service/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles the chat endpoint
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// RegisterRoutes registers the chat routes
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/chat", h.Chat)
}

type chatRequest struct {
	Message *string `json:"message"`
	UserID  *uint   `json:"user_id"`
}

// Chat handles an incoming chat message: validation, the processing pipeline,
// and the response contract. Validation failures are 400 with the message
// surfaced verbatim; generation and storage failures are 500.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil {
		c.Error(apperrors.NewBadRequestError("MESSAGE_REQUIRED", "Message is required"))
		return
	}

	userText := strings.TrimSpace(*req.Message)
	if userText == "" {
		c.Error(apperrors.NewBadRequestError("EMPTY_MESSAGE", "Empty message not allowed"))
		return
	}

	result, err := h.chat.ProcessMessage(c.Request.Context(), userText, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGeneration):
			c.Error(apperrors.NewInternalServerError("GENERATION_FAILED", err.Error()))
		case errors.Is(err, service.ErrStorage):
			c.Error(apperrors.NewInternalServerError("STORAGE_FAILED", "Failed to store conversation"))
		default:
			c.Error(apperrors.FromError(err))
		}
		return
	}

	c.JSON(200, result)
}
