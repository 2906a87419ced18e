package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

const (
	// LearnerWordLimit is how many recent words a learner sees
	LearnerWordLimit = 10
	teacherWordLimit = 100
	weeklyTestWindow = 7 * 24 * time.Hour
)

// DailyWordInput is the teacher form for a new daily word
type DailyWordInput struct {
	Norwegian string `json:"norwegian" validate:"required,max=100"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Theme     string `json:"theme" validate:"max=100"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	ImageAlt  string `json:"image_alt" validate:"max=200"`
}

// LevelTextInput adds the text for one difficulty level
type LevelTextInput struct {
	Level    int    `json:"level"`
	Text     string `json:"text" validate:"required"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	ImageAlt string `json:"image_alt"`
}

// TranslationInput adds a translation into one of the offered languages
type TranslationInput struct {
	LanguageCode string `json:"language_code" validate:"required,oneof=en es fr de pl ar so ur"`
	Text         string `json:"text" validate:"required"`
}

// PronunciationInput adds an audio clip
type PronunciationInput struct {
	LanguageCode string `json:"language_code" validate:"required,min=2,max=5"`
	AudioURL     string `json:"audio_url" validate:"required,url"`
}

// TaskInput adds an exercise
type TaskInput struct {
	Type   string          `json:"type" validate:"required,max=50"`
	Level  int             `json:"level"`
	Prompt string          `json:"prompt"`
	Answer json.RawMessage `json:"answer"`
	Data   json.RawMessage `json:"data"`
}

// LearnerWord is a daily word with the parts picked for one learner
type LearnerWord struct {
	Word        domain.DailyWord
	LevelText   *domain.LevelText
	Translation *domain.Translation
}

// DailyWordService manages daily words and their attachments
type DailyWordService struct {
	words  repository.DailyWordRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewDailyWordService creates a new daily word service
func NewDailyWordService(words repository.DailyWordRepository, logger *zap.Logger) *DailyWordService {
	return &DailyWordService{
		words:  words,
		logger: logger,
		now:    time.Now,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateDailyWord stores an unapproved word for the teacher's classroom
func (s *DailyWordService) CreateDailyWord(ctx context.Context, teacher domain.Profile, in DailyWordInput) (domain.DailyWord, error) {
	if teacher.ClassroomID == nil {
		return domain.DailyWord{}, domain.ErrNoClassroom
	}
	in.Norwegian = strings.TrimSpace(in.Norwegian)
	in.Date = strings.TrimSpace(in.Date)
	if err := validateStruct(in); err != nil {
		return domain.DailyWord{}, err
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if in.Date != "" {
		date, _ = time.Parse("2006-01-02", in.Date)
	}

	teacherID := teacher.ID
	word, err := s.words.CreateDailyWord(ctx, domain.DailyWord{
		Norwegian:   in.Norwegian,
		Date:        date,
		Theme:       optional(in.Theme),
		ClassroomID: *teacher.ClassroomID,
		CreatedBy:   &teacherID,
		ImageURL:    optional(in.ImageURL),
		ImageAlt:    optional(in.ImageAlt),
	})
	if err != nil {
		s.logger.Error("Failed to create daily word", zap.String("teacher_id", teacher.ID), zap.Error(err))
		return domain.DailyWord{}, err
	}

	s.logger.Info("Daily word created", zap.String("word_id", word.ID), zap.String("classroom_id", word.ClassroomID))
	return word, nil
}

// ownWord loads a word and checks it belongs to the teacher's classroom
func (s *DailyWordService) ownWord(ctx context.Context, teacher domain.Profile, id string) (*domain.DailyWord, error) {
	if teacher.ClassroomID == nil {
		return nil, domain.ErrNoClassroom
	}
	word, err := s.words.GetDailyWord(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch daily word", zap.String("word_id", id), zap.Error(err))
		return nil, err
	}
	if word == nil || word.ClassroomID != *teacher.ClassroomID {
		return nil, domain.ErrNotFound
	}
	return word, nil
}

// GetForTeacher returns a word of the teacher's classroom with all attachments
func (s *DailyWordService) GetForTeacher(ctx context.Context, teacher domain.Profile, id string) (*domain.DailyWord, error) {
	return s.ownWord(ctx, teacher, id)
}

// ApproveDailyWord publishes a word to the classroom's learners
func (s *DailyWordService) ApproveDailyWord(ctx context.Context, teacher domain.Profile, id string) error {
	if _, err := s.ownWord(ctx, teacher, id); err != nil {
		return err
	}
	return s.words.ApproveDailyWord(ctx, id)
}

// ListForTeacher returns all of the classroom's words, approved or not
func (s *DailyWordService) ListForTeacher(ctx context.Context, teacher domain.Profile) ([]domain.DailyWord, error) {
	if teacher.ClassroomID == nil {
		return nil, domain.ErrNoClassroom
	}
	return s.words.ListDailyWords(ctx, *teacher.ClassroomID, false, teacherWordLimit)
}

// ListForLearner returns the latest approved words of the learner's classroom
func (s *DailyWordService) ListForLearner(ctx context.Context, learner domain.Profile) ([]domain.DailyWord, error) {
	if learner.ClassroomID == nil {
		return nil, nil
	}
	words, err := s.words.ListDailyWords(ctx, *learner.ClassroomID, true, LearnerWordLimit)
	if err != nil {
		s.logger.Error("Failed to list daily words", zap.String("learner_id", learner.ID), zap.Error(err))
		return nil, err
	}
	return words, nil
}

// GetForLearner returns an approved word with the level text and translation for the learner
func (s *DailyWordService) GetForLearner(ctx context.Context, learner domain.Profile, id string) (*LearnerWord, error) {
	word, err := s.words.GetDailyWord(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch daily word", zap.String("word_id", id), zap.Error(err))
		return nil, err
	}
	if word == nil || !word.Approved || learner.ClassroomID == nil || word.ClassroomID != *learner.ClassroomID {
		return nil, domain.ErrNotFound
	}

	return &LearnerWord{
		Word:        *word,
		LevelText:   word.LevelTextFor(learner.DifficultyLevel),
		Translation: word.TranslationFor(learner.L1),
	}, nil
}

// AddLevelText attaches the text for one difficulty level
func (s *DailyWordService) AddLevelText(ctx context.Context, teacher domain.Profile, wordID string, in LevelTextInput) (domain.LevelText, error) {
	if err := domain.ValidateDifficulty(in.Level); err != nil {
		return domain.LevelText{}, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return domain.LevelText{}, err
	}
	if _, err := s.ownWord(ctx, teacher, wordID); err != nil {
		return domain.LevelText{}, err
	}
	return s.words.AddLevelText(ctx, domain.LevelText{
		DailyWordID: wordID,
		Level:       in.Level,
		Text:        in.Text,
		ImageURL:    optional(in.ImageURL),
		ImageAlt:    optional(in.ImageAlt),
	})
}

// AddTranslation attaches a translation
func (s *DailyWordService) AddTranslation(ctx context.Context, teacher domain.Profile, wordID string, in TranslationInput) (domain.Translation, error) {
	in.LanguageCode = strings.ToLower(strings.TrimSpace(in.LanguageCode))
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return domain.Translation{}, err
	}
	if _, err := s.ownWord(ctx, teacher, wordID); err != nil {
		return domain.Translation{}, err
	}
	return s.words.AddTranslation(ctx, domain.Translation{
		DailyWordID:  wordID,
		LanguageCode: in.LanguageCode,
		Text:         in.Text,
	})
}

// AddPronunciation attaches an audio clip
func (s *DailyWordService) AddPronunciation(ctx context.Context, teacher domain.Profile, wordID string, in PronunciationInput) (domain.Pronunciation, error) {
	in.LanguageCode = strings.ToLower(strings.TrimSpace(in.LanguageCode))
	if err := validateStruct(in); err != nil {
		return domain.Pronunciation{}, err
	}
	if _, err := s.ownWord(ctx, teacher, wordID); err != nil {
		return domain.Pronunciation{}, err
	}
	return s.words.AddPronunciation(ctx, domain.Pronunciation{
		DailyWordID:  wordID,
		LanguageCode: in.LanguageCode,
		AudioURL:     in.AudioURL,
	})
}

// AddTask attaches an exercise. Answer and data must be valid JSON when given.
func (s *DailyWordService) AddTask(ctx context.Context, teacher domain.Profile, wordID string, in TaskInput) (domain.Task, error) {
	if err := domain.ValidateDifficulty(in.Level); err != nil {
		return domain.Task{}, err
	}
	in.Type = strings.TrimSpace(in.Type)
	if err := validateStruct(in); err != nil {
		return domain.Task{}, err
	}
	if len(in.Answer) > 0 && !json.Valid(in.Answer) {
		return domain.Task{}, invalid("answer", "Ugyldig verdi")
	}
	if len(in.Data) > 0 && !json.Valid(in.Data) {
		return domain.Task{}, invalid("data", "Ugyldig verdi")
	}
	if _, err := s.ownWord(ctx, teacher, wordID); err != nil {
		return domain.Task{}, err
	}
	return s.words.AddTask(ctx, domain.Task{
		DailyWordID: wordID,
		Type:        in.Type,
		Level:       in.Level,
		Prompt:      optional(in.Prompt),
		Answer:      in.Answer,
		Data:        in.Data,
	})
}

// WeeklyTasks returns the classroom's tasks from the last seven days
func (s *DailyWordService) WeeklyTasks(ctx context.Context, teacher domain.Profile) ([]domain.Task, error) {
	if teacher.ClassroomID == nil {
		return nil, domain.ErrNoClassroom
	}
	return s.words.ListTasksSince(ctx, *teacher.ClassroomID, s.now().Add(-weeklyTestWindow))
}
