package service

import (
	"context"
	"testing"
	"time"

	"genai-customer-service/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTurn(t *testing.T, svc *FollowupService, userID uint, message, language string) uint {
	t.Helper()
	conv := models.Conversation{
		UserID:         userID,
		Role:           models.SenderUser,
		Message:        message,
		Intent:         models.IntentComplaint,
		SentimentScore: 0.4,
		Timestamp:      time.Now().UTC(),
	}
	require.NoError(t, svc.db.Create(&conv).Error)
	messages := []models.Message{
		{ConversationID: conv.ID, Sender: models.SenderUser, Text: message, Language: language, Timestamp: conv.Timestamp},
		{ConversationID: conv.ID, Sender: models.SenderBot, Text: "noted", Language: language, Timestamp: conv.Timestamp},
	}
	require.NoError(t, svc.db.Create(&messages).Error)
	return conv.ID
}

func TestFollowupGenerate(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{result: structured("How satisfied were you? 1-5", "", 0, "")}
	svc := NewFollowupService(db, gen, nil, newTestLogger())

	user := models.User{Email: "followup@example.com", Name: "Followup"}
	require.NoError(t, db.Create(&user).Error)
	convID := seedTurn(t, svc, user.ID, "my account was locked", "Hindi")

	result, err := svc.Generate(context.Background(), user.ID, "sms")
	require.NoError(t, err)

	assert.Equal(t, "How satisfied were you? 1-5", result.FollowupText)
	assert.Equal(t, "sms", result.Channel)
	assert.Equal(t, convID, result.ConversationID)

	// The survey prompt carries the last turn's language and issue
	assert.Contains(t, gen.lastReq.UserText, "Hindi")
	assert.Contains(t, gen.lastReq.UserText, "my account was locked")
}

func TestFollowupDefaultsToEmailChannel(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{result: structured("survey", "", 0, "")}
	svc := NewFollowupService(db, gen, nil, newTestLogger())

	user := models.User{Email: "channel@example.com", Name: "Chan"}
	require.NoError(t, db.Create(&user).Error)
	seedTurn(t, svc, user.ID, "billing question", "English")

	result, err := svc.Generate(context.Background(), user.ID, "carrier-pigeon")
	require.NoError(t, err)
	assert.Equal(t, "email", result.Channel)
}

func TestFollowupNoConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewFollowupService(db, &stubGenerator{}, nil, newTestLogger())

	user := models.User{Email: "empty@example.com", Name: "Empty"}
	require.NoError(t, db.Create(&user).Error)

	_, err := svc.Generate(context.Background(), user.ID, "email")
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestFollowupUsesLatestConversation(t *testing.T) {
	db := newTestDB(t)
	gen := &stubGenerator{result: structured("survey", "", 0, "")}
	svc := NewFollowupService(db, gen, nil, newTestLogger())

	user := models.User{Email: "latest@example.com", Name: "Latest"}
	require.NoError(t, db.Create(&user).Error)
	seedTurn(t, svc, user.ID, "older issue", "English")

	// Ensure a strictly later timestamp for the second turn
	time.Sleep(5 * time.Millisecond)
	latestID := seedTurn(t, svc, user.ID, "newer issue", "English")

	result, err := svc.Generate(context.Background(), user.ID, "email")
	require.NoError(t, err)
	assert.Equal(t, latestID, result.ConversationID)
	assert.Contains(t, gen.lastReq.UserText, "newer issue")
}
