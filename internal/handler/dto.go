package handler

import (
	"encoding/json"
	"time"

	"norgeskole/internal/domain"
	"norgeskole/internal/service"
)

type profileResponse struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	L1              *string     `json:"l1"`
	Role            domain.Role `json:"role"`
	RoleLabel       string      `json:"role_label"`
	DifficultyLevel int         `json:"difficulty_level"`
	ClassroomID     *string     `json:"classroom_id"`
	Home            string      `json:"home"`
}

func newProfileResponse(p domain.Profile) profileResponse {
	return profileResponse{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		L1:              p.L1,
		Role:            p.Role,
		RoleLabel:       p.Role.Label(),
		DifficultyLevel: p.DifficultyLevel,
		ClassroomID:     p.ClassroomID,
		Home:            p.Role.Home(),
	}
}

type classroomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func newClassroomResponses(classrooms []domain.Classroom) []classroomResponse {
	out := make([]classroomResponse, 0, len(classrooms))
	for _, c := range classrooms {
		out = append(out, classroomResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt})
	}
	return out
}

type inviteResponse struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	URL           string      `json:"url"`
	Role          domain.Role `json:"role"`
	RoleLabel     string      `json:"role_label"`
	ClassroomID   string      `json:"classroom_id"`
	ClassroomName string      `json:"classroom_name"`
	Active        bool        `json:"active"`
	SingleUse     bool        `json:"single_use"`
	CreatedAt     time.Time   `json:"created_at"`
}

type languageResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func languages() []languageResponse {
	out := make([]languageResponse, 0, len(domain.Languages))
	for _, l := range domain.Languages {
		out = append(out, languageResponse{Code: l.Code, Name: l.Name})
	}
	return out
}

type levelTextResponse struct {
	ID       string  `json:"id"`
	Level    int     `json:"level"`
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url"`
	ImageAlt *string `json:"image_alt"`
}

type translationResponse struct {
	ID           string `json:"id"`
	LanguageCode string `json:"language_code"`
	Text         string `json:"text"`
}

type pronunciationResponse struct {
	ID           string `json:"id"`
	LanguageCode string `json:"language_code"`
	AudioURL     string `json:"audio_url"`
}

type taskResponse struct {
	ID          string          `json:"id"`
	DailyWordID string          `json:"daily_word_id"`
	Type        string          `json:"type"`
	Level       int             `json:"level"`
	Prompt      *string         `json:"prompt"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

type dailyWordResponse struct {
	ID             string                  `json:"id"`
	Norwegian      string                  `json:"norwegian"`
	Date           string                  `json:"date"`
	Theme          *string                 `json:"theme"`
	Approved       bool                    `json:"approved"`
	ClassroomID    string                  `json:"classroom_id"`
	ImageURL       *string                 `json:"image_url"`
	ImageAlt       *string                 `json:"image_alt"`
	LevelTexts     []levelTextResponse     `json:"level_texts,omitempty"`
	Translations   []translationResponse   `json:"translations,omitempty"`
	Pronunciations []pronunciationResponse `json:"pronunciations,omitempty"`
	Tasks          []taskResponse          `json:"tasks,omitempty"`
}

func newLevelTextResponse(lt domain.LevelText) levelTextResponse {
	return levelTextResponse{ID: lt.ID, Level: lt.Level, Text: lt.Text, ImageURL: lt.ImageURL, ImageAlt: lt.ImageAlt}
}

func newTranslationResponse(tr domain.Translation) translationResponse {
	return translationResponse{ID: tr.ID, LanguageCode: tr.LanguageCode, Text: tr.Text}
}

func newPronunciationResponse(p domain.Pronunciation) pronunciationResponse {
	return pronunciationResponse{ID: p.ID, LanguageCode: p.LanguageCode, AudioURL: p.AudioURL}
}

func newTaskResponse(t domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		DailyWordID: t.DailyWordID,
		Type:        t.Type,
		Level:       t.Level,
		Prompt:      t.Prompt,
		Answer:      t.Answer,
		Data:        t.Data,
	}
}

func newTaskResponses(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}

func newDailyWordResponse(w domain.DailyWord) dailyWordResponse {
	resp := dailyWordResponse{
		ID:          w.ID,
		Norwegian:   w.Norwegian,
		Date:        w.Date.Format("2006-01-02"),
		Theme:       w.Theme,
		Approved:    w.Approved,
		ClassroomID: w.ClassroomID,
		ImageURL:    w.ImageURL,
		ImageAlt:    w.ImageAlt,
	}
	for _, lt := range w.LevelTexts {
		resp.LevelTexts = append(resp.LevelTexts, newLevelTextResponse(lt))
	}
	for _, tr := range w.Translations {
		resp.Translations = append(resp.Translations, newTranslationResponse(tr))
	}
	for _, p := range w.Pronunciations {
		resp.Pronunciations = append(resp.Pronunciations, newPronunciationResponse(p))
	}
	for _, t := range w.Tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	return resp
}

func newDailyWordResponses(words []domain.DailyWord) []dailyWordResponse {
	out := make([]dailyWordResponse, 0, len(words))
	for _, w := range words {
		out = append(out, newDailyWordResponse(w))
	}
	return out
}

// learnerWordResponse shows only the level text and translation picked for the learner
type learnerWordResponse struct {
	ID             string                  `json:"id"`
	Norwegian      string                  `json:"norwegian"`
	Date           string                  `json:"date"`
	Theme          *string                 `json:"theme"`
	ImageURL       *string                 `json:"image_url"`
	ImageAlt       *string                 `json:"image_alt"`
	LevelText      *levelTextResponse      `json:"level_text"`
	Translation    *translationResponse    `json:"translation"`
	Pronunciations []pronunciationResponse `json:"pronunciations"`
	Tasks          []taskResponse          `json:"tasks"`
}

func newLearnerWordResponse(lw service.LearnerWord, level int) learnerWordResponse {
	resp := learnerWordResponse{
		ID:             lw.Word.ID,
		Norwegian:      lw.Word.Norwegian,
		Date:           lw.Word.Date.Format("2006-01-02"),
		Theme:          lw.Word.Theme,
		ImageURL:       lw.Word.ImageURL,
		ImageAlt:       lw.Word.ImageAlt,
		Pronunciations: []pronunciationResponse{},
		Tasks:          []taskResponse{},
	}
	if lw.LevelText != nil {
		lt := newLevelTextResponse(*lw.LevelText)
		resp.LevelText = &lt
	}
	if lw.Translation != nil {
		tr := newTranslationResponse(*lw.Translation)
		resp.Translation = &tr
	}
	for _, p := range lw.Word.Pronunciations {
		resp.Pronunciations = append(resp.Pronunciations, newPronunciationResponse(p))
	}
	for _, t := range lw.Word.Tasks {
		if t.Level == level {
			resp.Tasks = append(resp.Tasks, newTaskResponse(t))
		}
	}
	return resp
}

type decisionResponse struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

func newDecisionResponse(d domain.Decision) decisionResponse {
	return decisionResponse{Allow: d.Allow, Redirect: d.Redirect}
}
