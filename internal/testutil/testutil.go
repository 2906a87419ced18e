package testutil

import (
	"time"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestProfile creates a profile with the given role in classroom class-1
func NewTestProfile(id string, role domain.Role) *domain.Profile {
	classroomID := "class-1"
	return &domain.Profile{
		ID:              id,
		Name:            "Test " + role.Label(),
		Email:           id + "@skole.no",
		Role:            role,
		DifficultyLevel: domain.DefaultDifficulty,
		ClassroomID:     &classroomID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

// NewTestSession creates a live session for an identity
func NewTestSession(identityID string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:         "sid-" + identityID,
		IdentityID: identityID,
		Email:      identityID + "@skole.no",
		Token:      "token-" + identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
}

// NewTestDailyWord creates a word in classroom class-1
func NewTestDailyWord(id, norwegian string, approved bool) *domain.DailyWord {
	return &domain.DailyWord{
		ID:          id,
		Norwegian:   norwegian,
		Date:        time.Now().Truncate(24 * time.Hour),
		Approved:    approved,
		ClassroomID: "class-1",
		CreatedAt:   time.Now(),
	}
}
