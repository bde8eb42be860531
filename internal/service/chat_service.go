package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genai-customer-service/backend/ai"
	"genai-customer-service/backend/internal/kb"
	"genai-customer-service/backend/internal/langdetect"
	"genai-customer-service/backend/internal/models"
	"genai-customer-service/backend/pkg/logger"
	"genai-customer-service/backend/shared/observability"

	"gorm.io/gorm"
)

// Pipeline error sentinels. Both map to 500 at the HTTP layer; generation
// failures persist nothing, storage failures discard the generated reply.
var (
	ErrGeneration = errors.New("Gemini error")
	ErrStorage    = errors.New("Failed to store conversation")
)

// ResponseGenerator produces a structured reply for one chat turn
type ResponseGenerator interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

// EscalationPublisher hands escalation bundles to human-agent tooling
type EscalationPublisher interface {
	Push(ctx context.Context, bundle interface{}) error
}

// EscalationBundle is the context attached to an escalated turn
type EscalationBundle struct {
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	History   string    `json:"history"`
	Message   string    `json:"message"`
	Sentiment float64   `json:"sentiment"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResult is the outcome of one processed chat turn
type ChatResult struct {
	UserMessage      string  `json:"user_message"`
	BotReply         string  `json:"bot_reply"`
	DetectedLanguage string  `json:"detected_language"`
	Intent           string  `json:"intent"`
	SentimentScore   float64 `json:"sentiment_score"`
	ResponseTime     string  `json:"response_time"`
	Escalate         bool    `json:"escalate,omitempty"`
	ContextSummary   string  `json:"context_summary,omitempty"`
}

// ChatService runs the message processing pipeline: industry inference,
// language detection, history aggregation, generation, the
// resolution/escalation policy and persistence. Each call is synchronous;
// concurrent turns for one user are not coordinated.
type ChatService struct {
	db            *gorm.DB
	users         *UserService
	generator     ResponseGenerator
	kb            *kb.KnowledgeBase
	queue         EscalationPublisher
	metrics       *observability.PipelineMetrics
	log           *logger.Logger
	historyLimit  int
	fragmentLen   int
	slowThreshold time.Duration
}

// NewChatService creates a chat service
func NewChatService(db *gorm.DB, generator ResponseGenerator, base *kb.KnowledgeBase, log *logger.Logger) *ChatService {
	return &ChatService{
		db:            db,
		users:         NewUserService(db),
		generator:     generator,
		kb:            base,
		log:           log,
		historyLimit:  5,
		fragmentLen:   50,
		slowThreshold: 5 * time.Second,
	}
}

// SetEscalationQueue attaches an optional escalation publisher. Publish
// failures are logged, never fatal.
func (s *ChatService) SetEscalationQueue(queue EscalationPublisher) {
	s.queue = queue
}

// SetMetrics attaches optional pipeline metrics
func (s *ChatService) SetMetrics(metrics *observability.PipelineMetrics) {
	s.metrics = metrics
}

// SetLimits overrides the history and timing knobs
func (s *ChatService) SetLimits(historyLimit, fragmentLen int, slowThreshold time.Duration) {
	if historyLimit > 0 {
		s.historyLimit = historyLimit
	}
	if fragmentLen > 0 {
		s.fragmentLen = fragmentLen
	}
	if slowThreshold > 0 {
		s.slowThreshold = slowThreshold
	}
}

// ProcessMessage handles one incoming chat message end to end. userID is
// optional; without it the shared test user is used or created.
func (s *ChatService) ProcessMessage(ctx context.Context, userText string, userID *uint) (*ChatResult, error) {
	user, created, err := s.users.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if created {
		s.log.Info("Created new user", "user_id", user.ID, "email", user.Email)
	}

	// Industry inference updates the profile before generation
	if inferred := InferIndustry(userText, user.Industry); inferred != user.Industry {
		if err := s.users.UpdateIndustry(user, inferred); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		s.log.Info("Updated user industry", "user_id", user.ID, "industry", inferred)
	}

	// Provisional script-based language; the model may override it
	detectedLanguage := langdetect.Detect(userText)
	if detectedLanguage != user.PreferredLanguage {
		if err := s.users.UpdateLanguage(user, detectedLanguage); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		s.log.Info("Updated user preferred language", "user_id", user.ID, "language", detectedLanguage)
	}

	history, err := historySummary(s.db, user.ID, s.historyLimit, s.fragmentLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	start := time.Now()

	generated, err := s.generator.Generate(ctx, ai.Request{
		UserText: userText,
		UserName: user.Name,
		Industry: user.Industry,
		Language: detectedLanguage,
		History:  history,
	})
	if err != nil {
		s.log.LogError(err, "Response generation failed", "user_id", user.ID)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	botReply := generated.Reply
	intent := generated.Intent
	sentiment := generated.Sentiment
	detectedLanguage = generated.Language
	if generated.Kind == ai.OutcomeRawFallback {
		s.log.Warn("Model did not return JSON; using raw reply", "user_id", user.ID)
	}

	// Resolution/escalation policy: KB auto-resolution takes precedence over
	// escalation, rules are mutually exclusive in this order.
	escalate := false
	autoResolved := false
	contextSummary := ""
	if resolution, ok := s.kb.FindResolution(intent, userText, user.Industry); ok && sentiment > 0.5 {
		botReply = resolution
		autoResolved = true
		s.log.Info("Auto-resolved via KB", "user_id", user.ID, "intent", intent)
	} else if intent == models.IntentEscalate || sentiment < 0.3 {
		escalate = true
		contextSummary = fmt.Sprintf("User: %s (%d), History: %s..., Current: %s, Sentiment: %v",
			user.Name, user.ID, truncate(history, 200), userText, sentiment)
		botReply = fmt.Sprintf("Escalating to human agent with context. Hold tight, %s!", user.Name)
		s.publishEscalation(ctx, user, history, userText, sentiment, contextSummary)
		s.log.Info("Escalation triggered", "user_id", user.ID, "intent", intent, "sentiment", sentiment)
	}

	elapsed := time.Since(start)
	if elapsed > s.slowThreshold {
		s.log.Warn("Slow response detected", "elapsed", elapsed.String(), "user_id", user.ID)
	}
	s.metrics.RecordTurn(ctx, intent, escalate, autoResolved, elapsed)

	if err := s.storeTurn(user.ID, userText, botReply, intent, sentiment, detectedLanguage); err != nil {
		s.log.LogError(err, "DB storage error", "user_id", user.ID)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &ChatResult{
		UserMessage:      userText,
		BotReply:         botReply,
		DetectedLanguage: detectedLanguage,
		Intent:           intent,
		SentimentScore:   sentiment,
		ResponseTime:     fmt.Sprintf("%.2fs", elapsed.Seconds()),
		Escalate:         escalate,
		ContextSummary:   contextSummary,
	}, nil
}

// storeTurn persists the conversation first to obtain its id, then both
// messages in a single create. A failure after the first commit leaves an
// orphaned conversation without messages, a tolerated partial-failure state.
func (s *ChatService) storeTurn(userID uint, userText, botReply, intent string, sentiment float64, language string) error {
	now := time.Now().UTC()

	conv := models.Conversation{
		UserID:         userID,
		Role:           models.SenderUser,
		Message:        userText,
		Intent:         intent,
		SentimentScore: sentiment,
		Timestamp:      now,
	}
	if err := s.db.Create(&conv).Error; err != nil {
		return err
	}

	messages := []models.Message{
		{ConversationID: conv.ID, Sender: models.SenderUser, Text: userText, Language: language, Timestamp: now},
		{ConversationID: conv.ID, Sender: models.SenderBot, Text: botReply, Language: language, Timestamp: now},
	}
	if err := s.db.Create(&messages).Error; err != nil {
		return err
	}

	s.log.Info("Stored conversation", "conversation_id", conv.ID, "intent", intent, "sentiment", sentiment)
	return nil
}

// publishEscalation hands the bundle to agent tooling; the queue is advisory
func (s *ChatService) publishEscalation(ctx context.Context, user *models.User, history, userText string, sentiment float64, summary string) {
	if s.queue == nil {
		return
	}

	bundle := EscalationBundle{
		UserID:    user.ID,
		UserName:  user.Name,
		History:   truncate(history, 200),
		Message:   userText,
		Sentiment: sentiment,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
	if err := s.queue.Push(ctx, bundle); err != nil {
		s.log.Warn("Failed to publish escalation bundle", "user_id", user.ID, "error", err.Error())
	}
}
