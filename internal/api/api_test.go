package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"genai-customer-service/backend/ai"
	"genai-customer-service/backend/internal/kb"
	"genai-customer-service/backend/internal/models"
	"genai-customer-service/backend/internal/service"
	apperrors "genai-customer-service/backend/pkg/errors"
	"genai-customer-service/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubGenerator struct {
	result *ai.Result
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, _ ai.Request) (*ai.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.result.Reply, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T, gen *stubGenerator) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Analytics{},
	))

	log := logger.New(logger.Config{Level: "error", JSON: false, Output: io.Discard})

	router := gin.New()
	router.Use(apperrors.ErrorHandler())

	apiGroup := router.Group("/api")
	NewChatHandler(service.NewChatService(db, gen, kb.Load(), log)).RegisterRoutes(apiGroup)
	NewAnalyticsHandler(service.NewAnalyticsService(db, log)).RegisterRoutes(apiGroup)
	NewFollowupHandler(service.NewFollowupService(db, gen, nil, log)).RegisterRoutes(apiGroup)
	(&HealthHandler{}).RegisterRoutes(apiGroup)

	return &testEnv{router: router, db: db}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestChatMissingMessage(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	w := env.do(http.MethodPost, "/api/chat", map[string]any{"user_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Message is required"}`, w.Body.String())
}

func TestChatEmptyMessage(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	w := env.do(http.MethodPost, "/api/chat", map[string]any{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Empty message not allowed"}`, w.Body.String())
}

func TestChatHappyPath(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{result: &ai.Result{
		Kind:      ai.OutcomeStructured,
		Reply:     "Hello Test User!",
		Intent:    "query",
		Sentiment: 0.9,
		Language:  "English",
	}})

	w := env.do(http.MethodPost, "/api/chat", map[string]any{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hello", body["user_message"])
	assert.Equal(t, "Hello Test User!", body["bot_reply"])
	assert.Equal(t, "English", body["detected_language"])
	assert.Equal(t, "query", body["intent"])
	assert.Equal(t, 0.9, body["sentiment_score"])
	assert.Regexp(t, `^\d+\.\d{2}s$`, body["response_time"])

	// Non-escalated turns omit the escalation fields
	assert.NotContains(t, body, "escalate")
	assert.NotContains(t, body, "context_summary")
}

func TestChatEscalationFields(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{result: &ai.Result{
		Kind:      ai.OutcomeStructured,
		Reply:     "generated",
		Intent:    "unknown",
		Sentiment: 0.1,
		Language:  "English",
	}})

	w := env.do(http.MethodPost, "/api/chat", map[string]any{"message": "awful experience"})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["escalate"])
	assert.Contains(t, body["context_summary"], "awful experience")
}

func TestChatGenerationFailure(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("connection refused")})

	w := env.do(http.MethodPost, "/api/chat", map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Gemini error")
}

func TestAnalyticsNotFound(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	user := models.User{Email: "quiet@example.com", Name: "Quiet"}
	require.NoError(t, env.db.Create(&user).Error)

	w := env.do(http.MethodGet, fmt.Sprintf("/api/analytics/%d", user.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No data for user"}`, w.Body.String())
}

func TestAnalyticsAggregated(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	user := models.User{Email: "stats@example.com", Name: "Stats"}
	require.NoError(t, env.db.Create(&user).Error)
	require.NoError(t, env.db.Create(&models.Conversation{
		UserID: user.ID, Role: "user", Message: "a", Intent: "escalate", SentimentScore: 0.8, Timestamp: time.Now().UTC(),
	}).Error)
	require.NoError(t, env.db.Create(&models.Conversation{
		UserID: user.ID, Role: "user", Message: "b", Intent: "query", SentimentScore: 0.2, Timestamp: time.Now().UTC(),
	}).Error)

	w := env.do(http.MethodGet, fmt.Sprintf("/api/analytics/%d", user.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0.5, body["avg_sentiment"])
	assert.Equal(t, "50.0%", body["escalation_rate"])
	assert.Equal(t, float64(2), body["total_conversations"])
	assert.Equal(t, "N/A", body["avg_response_time"])
}

func TestFollowupMissingUserID(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	w := env.do(http.MethodPost, "/api/followup", map[string]any{"channel": "email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"user_id required"}`, w.Body.String())
}

func TestFollowupNoConversation(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	user := models.User{Email: "new@example.com", Name: "New"}
	require.NoError(t, env.db.Create(&user).Error)

	w := env.do(http.MethodPost, "/api/followup", map[string]any{"user_id": user.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No conversation found"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	w := env.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "Service is running", body.Message)

	parsed, err := time.Parse(time.RFC3339, body.Time)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}
