package domain

import (
	"strings"
	"time"
)

const (
	MinDifficulty     = 1
	MaxDifficulty     = 5
	DefaultDifficulty = MinDifficulty
)

// Profile is the application-level record of an identity
type Profile struct {
	ID              string
	Name            string
	Email           string
	L1              *string
	Role            Role
	DifficultyLevel int
	ClassroomID     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileUpdate holds the fields a user may change on their own profile.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Name            string
	Email           string
	L1              *string
	DifficultyLevel *int
}

// ValidateDifficulty rejects levels outside 1..5
func ValidateDifficulty(level int) error {
	if level < MinDifficulty || level > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	return nil
}

// Language is a mother tongue offered at registration
type Language struct {
	Code string
	Name string
}

// Languages lists the selectable mother tongues with their Norwegian names
var Languages = []Language{
	{Code: "en", Name: "Engelsk"},
	{Code: "es", Name: "Spansk"},
	{Code: "fr", Name: "Fransk"},
	{Code: "de", Name: "Tysk"},
	{Code: "pl", Name: "Polsk"},
	{Code: "ar", Name: "Arabisk"},
	{Code: "so", Name: "Somali"},
	{Code: "ur", Name: "Urdu"},
}

// NormalizeL1 trims and lowercases a language code. Empty input yields nil.
func NormalizeL1(code string) (*string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, true
	}
	for _, lang := range Languages {
		if lang.Code == code {
			return &code, true
		}
	}
	return nil, false
}
