package service

import (
	"fmt"
	"strings"

	"genai-customer-service/backend/internal/models"

	"gorm.io/gorm"
)

// historySummary flattens the user's recent turns into a bounded context
// string for the generator. The most recent conversations are fetched
// newest-first, each turn's messages appended in creation order, and the
// whole fragment list reversed so the summary reads chronologically.
func historySummary(db *gorm.DB, userID uint, limit, fragmentLen int) (string, error) {
	var convos []models.Conversation
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Find(&convos).Error
	if err != nil {
		return "", err
	}

	var fragments []string
	for _, conv := range convos {
		for _, msg := range conv.Messages {
			fragments = append(fragments, fmt.Sprintf("%s: %s...", capitalize(msg.Sender), truncate(msg.Text, fragmentLen)))
		}
	}

	// Reverse to present chronological context
	for i, j := 0, len(fragments)-1; i < j; i, j = i+1, j-1 {
		fragments[i], fragments[j] = fragments[j], fragments[i]
	}

	return strings.Join(fragments, " | "), nil
}

// truncate returns the first n runes of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// capitalize upcases the first letter only
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
