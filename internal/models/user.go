package models

import (
	"time"
)

// Default profile labels. Free-text in the schema; drawn from a known set.
const (
	DefaultLanguage = "English"
	DefaultIndustry = "general"
)

// User represents a customer in the system. PreferredLanguage and Industry are
// mutable and updated as a side effect of each chat turn; concurrent turns for
// the same user race last-write-wins on these two columns.
type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Email             string         `gorm:"uniqueIndex" json:"email"`
	Name              string         `json:"name"`
	PreferredLanguage string         `gorm:"default:English" json:"preferred_language"`
	Industry          string         `gorm:"default:general" json:"industry"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Conversations     []Conversation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
