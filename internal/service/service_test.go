package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"genai-customer-service/backend/ai"
	"genai-customer-service/backend/internal/kb"
	"genai-customer-service/backend/internal/models"
	"genai-customer-service/backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

// newTestLogger returns a logger that discards output
func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false, Output: io.Discard})
}

// stubGenerator returns a fixed result or error and records the last request
type stubGenerator struct {
	result  *ai.Result
	err     error
	calls   int
	lastReq ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (*ai.Result, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastReq = ai.Request{UserText: prompt}
	if s.err != nil {
		return "", s.err
	}
	return s.result.Reply, nil
}

// structured builds a structured generator outcome
func structured(reply, intent string, sentiment float64, language string) *ai.Result {
	return &ai.Result{
		Kind:      ai.OutcomeStructured,
		Reply:     reply,
		Intent:    intent,
		Sentiment: sentiment,
		Language:  language,
	}
}

// newChatService wires a chat service over the test database
func newChatService(db *gorm.DB, gen ResponseGenerator) *ChatService {
	return NewChatService(db, gen, kb.Load(), newTestLogger())
}
