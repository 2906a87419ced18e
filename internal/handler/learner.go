package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleLearnerWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.DailyWords.ListForLearner(r.Context(), profile(r))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste daglige ord")
		return
	}
	writeJSON(w, http.StatusOK, newDailyWordResponses(words))
}

func (h *Handler) handleLearnerWord(w http.ResponseWriter, r *http.Request) {
	learner := profile(r)
	word, err := h.DailyWords.GetForLearner(r.Context(), learner, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste daglig ord")
		return
	}
	writeJSON(w, http.StatusOK, newLearnerWordResponse(*word, learner.DifficultyLevel))
}
