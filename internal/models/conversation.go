package models

import (
	"time"
)

// Message senders
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Intent labels produced by the response generator
const (
	IntentQuery     = "query"
	IntentComplaint = "complaint"
	IntentEscalate  = "escalate"
	IntentUnknown   = "unknown"
)

// Conversation is one user-turn summary: the original message text plus the
// classification produced by the generator. Each turn owns exactly two
// Messages (user + bot), created together.
type Conversation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Role           string    `gorm:"default:user" json:"role"` // legacy column, superseded by intent
	Message        string    `gorm:"not null" json:"message"`
	Intent         string    `gorm:"default:unknown" json:"intent"`
	SentimentScore float64   `gorm:"default:0" json:"sentiment_score"` // 0-1, higher = positive
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	Messages       []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Message is one side of a turn
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	Sender         string    `gorm:"not null" json:"sender"` // 'user' or 'bot'
	Text           string    `gorm:"not null" json:"text"`
	Language       string    `gorm:"default:English" json:"language"`
	Timestamp      time.Time `json:"timestamp"`
}

// Analytics holds the last aggregated metrics for a user. The analytics
// endpoint recomputes from conversations on every call and refreshes this row.
type Analytics struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AvgSentiment       float64   `gorm:"default:0" json:"avg_sentiment"`
	EscalationCount    int       `gorm:"default:0" json:"escalation_count"`
	TotalConversations int       `gorm:"default:0" json:"total_conversations"`
	LastUpdated        time.Time `json:"last_updated"`
}
