package service

import (
	"testing"

	"genai-customer-service/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferIndustry(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		current  string
		expected string
	}{
		{"balance keyword", "My account balance?", "general", "banking"},
		{"hindi keyword", "मेरा खाता देखो", "general", "banking"},
		{"lock keyword uppercase", "ACCOUNT LOCKED", "telecom", "banking"},
		{"no keyword keeps current", "my bill is wrong", "telecom", "telecom"},
		{"no keyword keeps general", "hello", "general", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferIndustry(tt.text, tt.current))
		})
	}
}

func TestGetOrCreateExistingUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	existing := models.User{Email: "known@example.com", Name: "Known"}
	require.NoError(t, db.Create(&existing).Error)

	user, created, err := svc.GetOrCreate(&existing.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, user.ID)
}

func TestGetOrCreateUnknownIDCreatesUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	missing := uint(999)
	user, created, err := svc.GetOrCreate(&missing)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.DefaultIndustry, user.Industry)
}

func TestGetOrCreateWithoutIDUsesTestUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	shared := models.User{Email: "test@example.com", Name: "Test User"}
	require.NoError(t, db.Create(&shared).Error)

	user, created, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, shared.ID, user.ID)
}

func TestGetOrCreateZeroIDUsesTestUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	shared := models.User{Email: "test@example.com", Name: "Test User"}
	require.NoError(t, db.Create(&shared).Error)

	zero := uint(0)
	user, created, err := svc.GetOrCreate(&zero)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, shared.ID, user.ID)
}

func TestUpdateIndustryPersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user := models.User{Email: "ind@example.com", Name: "Ind", Industry: "general"}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, svc.UpdateIndustry(&user, "banking"))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "banking", reloaded.Industry)
	assert.Equal(t, "banking", user.Industry)
}
