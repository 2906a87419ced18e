package domain

import (
	"encoding/json"
	"time"
)

// DailyWord is a vocabulary word published to a classroom
type DailyWord struct {
	ID          string
	Norwegian   string
	Date        time.Time
	Theme       *string
	Approved    bool
	ClassroomID string
	CreatedBy   *string
	ImageURL    *string
	ImageAlt    *string
	CreatedAt   time.Time

	LevelTexts     []LevelText
	Translations   []Translation
	Pronunciations []Pronunciation
	Tasks          []Task
}

// LevelText is the explanatory text for one difficulty level
type LevelText struct {
	ID          string
	DailyWordID string
	Level       int
	Text        string
	ImageURL    *string
	ImageAlt    *string
}

// Translation of the word into one language
type Translation struct {
	ID           string
	DailyWordID  string
	LanguageCode string
	Text         string
}

// Pronunciation points at an audio clip for one language
type Pronunciation struct {
	ID           string
	DailyWordID  string
	LanguageCode string
	AudioURL     string
}

// Task is an exercise attached to a daily word
type Task struct {
	ID          string
	DailyWordID string
	Type        string
	Level       int
	Prompt      *string
	Answer      json.RawMessage
	Data        json.RawMessage
}

// LevelTextFor returns the text matching the learner's difficulty level
func (w *DailyWord) LevelTextFor(level int) *LevelText {
	for i := range w.LevelTexts {
		if w.LevelTexts[i].Level == level {
			return &w.LevelTexts[i]
		}
	}
	return nil
}

// TranslationFor returns the translation into the learner's mother tongue
func (w *DailyWord) TranslationFor(l1 *string) *Translation {
	if l1 == nil {
		return nil
	}
	for i := range w.Translations {
		if w.Translations[i].LanguageCode == *l1 {
			return &w.Translations[i]
		}
	}
	return nil
}

// DateString returns the word's date as YYYY-MM-DD
func (w *DailyWord) DateString() string {
	return w.Date.Format("2006-01-02")
}

// TeacherStats backs the teacher dashboard counters
type TeacherStats struct {
	DailyWordsThisMonth int
	Learners            int
}

// AdminStats backs the admin dashboard counters
type AdminStats struct {
	Classrooms    int
	ActiveInvites int
}
