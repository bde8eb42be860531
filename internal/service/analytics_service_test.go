package service

import (
	"testing"
	"time"

	"genai-customer-service/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConversation(t *testing.T, svc *AnalyticsService, userID uint, intent string, sentiment float64) {
	t.Helper()
	conv := models.Conversation{
		UserID:         userID,
		Role:           models.SenderUser,
		Message:        "seeded",
		Intent:         intent,
		SentimentScore: sentiment,
		Timestamp:      time.Now().UTC(),
	}
	require.NoError(t, svc.db.Create(&conv).Error)
}

func TestGetUserAnalyticsAggregates(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, newTestLogger())

	user := models.User{Email: "metrics@example.com", Name: "Metrics"}
	require.NoError(t, db.Create(&user).Error)

	seedConversation(t, svc, user.ID, models.IntentEscalate, 0.8)
	seedConversation(t, svc, user.ID, models.IntentQuery, 0.2)

	report, err := svc.GetUserAnalytics(user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, report.UserID)
	assert.Equal(t, 0.5, report.AvgSentiment)
	assert.Equal(t, "50.0%", report.EscalationRate)
	assert.Equal(t, 2, report.TotalConversations)
	assert.Equal(t, "N/A", report.AvgResponseTime)
}

func TestGetUserAnalyticsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, newTestLogger())

	user := models.User{Email: "repeat@example.com", Name: "Repeat"}
	require.NoError(t, db.Create(&user).Error)
	seedConversation(t, svc, user.ID, models.IntentQuery, 0.6)

	first, err := svc.GetUserAnalytics(user.ID)
	require.NoError(t, err)
	second, err := svc.GetUserAnalytics(user.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Only one snapshot row exists after repeated calls
	var count int64
	require.NoError(t, db.Model(&models.Analytics{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetUserAnalyticsNoConversations(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, newTestLogger())

	_, err := svc.GetUserAnalytics(42)
	assert.ErrorIs(t, err, ErrNoConversations)
}

func TestGetUserAnalyticsRefreshesSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, newTestLogger())

	user := models.User{Email: "snapshot@example.com", Name: "Snap"}
	require.NoError(t, db.Create(&user).Error)
	seedConversation(t, svc, user.ID, models.IntentEscalate, 0.4)

	_, err := svc.GetUserAnalytics(user.ID)
	require.NoError(t, err)

	var snapshot models.Analytics
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&snapshot).Error)
	assert.Equal(t, 1, snapshot.EscalationCount)
	assert.Equal(t, 1, snapshot.TotalConversations)
	assert.InDelta(t, 0.4, snapshot.AvgSentiment, 1e-9)
}
