package service

import (
	"context"
	"errors"
	"fmt"

	"genai-customer-service/backend/internal/models"
	"genai-customer-service/backend/pkg/cache"
	"genai-customer-service/backend/pkg/logger"

	"gorm.io/gorm"
)

// Follow-up delivery channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ErrNoConversation is returned when the user has no conversation to follow up on
var ErrNoConversation = errors.New("No conversation found")

// TextGenerator produces free-form text from a bare prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// FollowupResult is the generated survey and where it was "sent"
type FollowupResult struct {
	FollowupText   string `json:"followup_text"`
	Channel        string `json:"channel"`
	ConversationID uint   `json:"conversation_id"`
}

// FollowupService generates post-chat satisfaction surveys referencing the
// user's most recent conversation. Delivery is mocked: the message is logged
// per channel, not actually sent.
type FollowupService struct {
	db        *gorm.DB
	generator TextGenerator
	surveys   *cache.Cache
	log       *logger.Logger
}

// NewFollowupService creates a new follow-up service. surveys may be nil to
// disable caching.
func NewFollowupService(db *gorm.DB, generator TextGenerator, surveys *cache.Cache, log *logger.Logger) *FollowupService {
	return &FollowupService{db: db, generator: generator, surveys: surveys, log: log}
}

// Generate builds and "sends" a follow-up survey for the user's last turn
func (s *FollowupService) Generate(ctx context.Context, userID uint, channel string) (*FollowupResult, error) {
	if channel != ChannelSMS {
		channel = ChannelEmail
	}

	var lastConv models.Conversation
	err := s.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&lastConv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoConversation
		}
		return nil, err
	}

	// Avoid regenerating the same survey while the cache entry is fresh
	cacheKey := fmt.Sprintf("followup:%d:%s", lastConv.ID, channel)
	if s.surveys != nil {
		if cached, found := s.surveys.Get(cacheKey); found {
			if text, ok := cached.(string); ok {
				return &FollowupResult{FollowupText: text, Channel: channel, ConversationID: lastConv.ID}, nil
			}
		}
	}

	language := models.DefaultLanguage
	if len(lastConv.Messages) > 0 && lastConv.Messages[0].Language != "" {
		language = lastConv.Messages[0].Language
	}

	prompt := fmt.Sprintf(`Generate a short satisfaction survey follow-up in %s.
Reference recent issue: %s (intent: %s).
Include 1 question (e.g., "How satisfied were you? 1-5") and reply instructions.
Format: %s friendly.`,
		language, truncate(lastConv.Message, 100), lastConv.Intent, channel)

	followupText, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.send(channel, followupText)

	if s.surveys != nil {
		s.surveys.Set(cacheKey, followupText)
	}

	return &FollowupResult{
		FollowupText:   followupText,
		Channel:        channel,
		ConversationID: lastConv.ID,
	}, nil
}

// send mocks delivery by logging the message for the channel
func (s *FollowupService) send(channel, text string) {
	switch channel {
	case ChannelSMS:
		s.log.Info("Mock SMS sent", "body", truncate(text, 100))
	default:
		s.log.Info("Mock email sent",
			"subject", "Customer Service Follow-Up",
			"from", "support@example.com",
			"body", truncate(text, 100),
		)
	}
}
