package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"norgeskole/internal/service"
)

type difficultyRequest struct {
	DifficultyLevel int `json:"difficulty_level"`
}

type teacherStatsResponse struct {
	DailyWordsThisMonth int `json:"daily_words_this_month"`
	Learners            int `json:"learners"`
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newProfileResponse(profile(r)))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	p, err := h.Profiles.UpdateOwnProfile(r.Context(), profile(r).ID, req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke oppdatere profil")
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(*p))
}

// handleListLearners lists a classroom's learners, the teacher's own classroom by default
func (h *Handler) handleListLearners(w http.ResponseWriter, r *http.Request) {
	classroomID := r.URL.Query().Get("classroom_id")
	if classroomID == "" {
		if p := profile(r); p.ClassroomID != nil {
			classroomID = *p.ClassroomID
		}
	}
	if classroomID == "" {
		writeJSON(w, http.StatusOK, []profileResponse{})
		return
	}

	learners, err := h.Profiles.ListLearners(r.Context(), classroomID)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente elever")
		return
	}

	out := make([]profileResponse, 0, len(learners))
	for _, l := range learners {
		out = append(out, newProfileResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSetDifficulty(w http.ResponseWriter, r *http.Request) {
	var req difficultyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	if err := h.Profiles.SetLearnerDifficulty(r.Context(), chi.URLParam(r, "id"), req.DifficultyLevel); err != nil {
		h.writeError(w, r, err, "Kunne ikke oppdatere nivå")
		return
	}
	writeToast(w, http.StatusOK, "Oppdatert", "Elevens nivå er oppdatert")
}

func (h *Handler) handleTeacherWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.DailyWords.ListForTeacher(r.Context(), profile(r))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste daglige ord")
		return
	}
	writeJSON(w, http.StatusOK, newDailyWordResponses(words))
}

func (h *Handler) handleCreateDailyWord(w http.ResponseWriter, r *http.Request) {
	var req service.DailyWordInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	word, err := h.DailyWords.CreateDailyWord(r.Context(), profile(r), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke opprette daglig ord")
		return
	}
	writeJSON(w, http.StatusCreated, newDailyWordResponse(word))
}

func (h *Handler) handleTeacherWord(w http.ResponseWriter, r *http.Request) {
	word, err := h.DailyWords.GetForTeacher(r.Context(), profile(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste daglig ord")
		return
	}
	writeJSON(w, http.StatusOK, newDailyWordResponse(*word))
}

func (h *Handler) handleApproveDailyWord(w http.ResponseWriter, r *http.Request) {
	if err := h.DailyWords.ApproveDailyWord(r.Context(), profile(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err, "Kunne ikke godkjenne daglig ord")
		return
	}
	writeToast(w, http.StatusOK, "Suksess", "Daglig ord godkjent")
}

func (h *Handler) handleAddLevelText(w http.ResponseWriter, r *http.Request) {
	var req service.LevelTextInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	lt, err := h.DailyWords.AddLevelText(r.Context(), profile(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke lagre nivåtekst")
		return
	}
	writeJSON(w, http.StatusCreated, newLevelTextResponse(lt))
}

func (h *Handler) handleAddTranslation(w http.ResponseWriter, r *http.Request) {
	var req service.TranslationInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	tr, err := h.DailyWords.AddTranslation(r.Context(), profile(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke lagre oversettelse")
		return
	}
	writeJSON(w, http.StatusCreated, newTranslationResponse(tr))
}

func (h *Handler) handleAddPronunciation(w http.ResponseWriter, r *http.Request) {
	var req service.PronunciationInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	p, err := h.DailyWords.AddPronunciation(r.Context(), profile(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke lagre uttale")
		return
	}
	writeJSON(w, http.StatusCreated, newPronunciationResponse(p))
}

func (h *Handler) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req service.TaskInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	task, err := h.DailyWords.AddTask(r.Context(), profile(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke lagre oppgave")
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

func (h *Handler) handleWeeklyTests(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.DailyWords.WeeklyTasks(r.Context(), profile(r))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste ukens tester")
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponses(tasks))
}

func (h *Handler) handleTeacherStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.TeacherStats(r.Context(), profile(r))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente statistikk")
		return
	}
	writeJSON(w, http.StatusOK, teacherStatsResponse{DailyWordsThisMonth: stats.DailyWordsThisMonth, Learners: stats.Learners})
}
