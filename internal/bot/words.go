package bot

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"norgeskole/internal/domain"
	"norgeskole/internal/service"
)

// formatWord renders a daily word with the parts picked for the learner
func formatWord(w service.LearnerWord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📖 %s\n", w.Word.Norwegian)
	fmt.Fprintf(&b, "📅 %s\n", w.Word.Date.Format("02.01.2006"))
	if w.Word.Theme != nil {
		fmt.Fprintf(&b, "🏷 %s\n", *w.Word.Theme)
	}
	if w.LevelText != nil {
		fmt.Fprintf(&b, "\n%s\n", w.LevelText.Text)
	}
	if w.Translation != nil {
		fmt.Fprintf(&b, "\n🌍 %s\n", w.Translation.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func backMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnRecent, btnMenu))
	return markup
}

// handleToday shows the latest approved word
func (h *Handler) handleToday(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	learner, err := h.learner(ctx, c)
	if err != nil {
		h.logger.Error("Failed to fetch learner", zap.Int64("chat_id", c.Sender().ID), zap.Error(err))
		return c.Send(errorMessage)
	}

	words, err := h.words.ListForLearner(ctx, *learner)
	if err != nil {
		h.logger.Error("Failed to list daily words", zap.String("learner_id", learner.ID), zap.Error(err))
		return c.Send(errorMessage)
	}
	if len(words) == 0 {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Ingen ord ennå", ShowAlert: true})
		}
		return c.Send("Ingen ord ennå")
	}

	return h.showWord(c, *learner, words[0].ID)
}

// handleRecent lists the learner's latest words as buttons
func (h *Handler) handleRecent(c tele.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	learner, err := h.learner(ctx, c)
	if err != nil {
		h.logger.Error("Failed to fetch learner", zap.Int64("chat_id", c.Sender().ID), zap.Error(err))
		return c.Send(errorMessage)
	}

	words, err := h.words.ListForLearner(ctx, *learner)
	if err != nil {
		h.logger.Error("Failed to list daily words", zap.String("learner_id", learner.ID), zap.Error(err))
		return c.Send(errorMessage)
	}
	if len(words) == 0 {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Ingen ord ennå", ShowAlert: true})
		}
		return c.Send("Ingen ord ennå")
	}

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(words)+1)
	for _, w := range words {
		label := fmt.Sprintf("%s (%s)", w.Norwegian, w.Date.Format("02.01"))
		rows = append(rows, markup.Row(markup.Data(label, wordPrefix+w.ID)))
	}
	rows = append(rows, markup.Row(btnMenu))
	markup.Inline(rows...)

	return h.show(c, fmt.Sprintf("📚 Siste ord (%d):", len(words)), markup)
}

// handleWordSelection shows one word picked from the recent list
func (h *Handler) handleWordSelection(c tele.Context, wordID string) error {
	ctx, cancel := requestContext()
	defer cancel()

	learner, err := h.learner(ctx, c)
	if err != nil {
		h.logger.Error("Failed to fetch learner", zap.Int64("chat_id", c.Sender().ID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: errorMessage})
	}
	return h.showWord(c, *learner, wordID)
}

func (h *Handler) showWord(c tele.Context, learner domain.Profile, wordID string) error {
	ctx, cancel := requestContext()
	defer cancel()

	word, err := h.words.GetForLearner(ctx, learner, wordID)
	if errors.Is(err, domain.ErrNotFound) {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Ordet finnes ikke lenger"})
		}
		return c.Send("Ordet finnes ikke lenger")
	}
	if err != nil {
		h.logger.Error("Failed to fetch daily word", zap.String("word_id", wordID), zap.Error(err))
		return c.Send(errorMessage)
	}

	return h.show(c, formatWord(*word), backMarkup())
}

// handleMenu shows the main menu
func (h *Handler) handleMenu(c tele.Context) error {
	return h.show(c, menuText, mainMenuMarkup())
}

// handleLogout unlinks the chat
func (h *Handler) handleLogout(c tele.Context) error {
	chatID := c.Sender().ID
	ctx, cancel := requestContext()
	defer cancel()

	if err := h.links.UnlinkChat(ctx, chatID); err != nil {
		h.logger.Error("Failed to unlink chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return c.Send(errorMessage)
	}

	h.ResetState(chatID)
	h.logger.Info("Chat unlinked", zap.Int64("chat_id", chatID))

	text := "👋 Du er logget ut. Skriv /start for å logge inn igjen."
	if c.Callback() == nil {
		return c.Send(text)
	}
	if err := c.Edit(text); err != nil {
		if handleErr := h.handleEditError(err, c, chatID); handleErr == nil {
			return nil
		}
		return c.Send(text)
	}
	return c.Respond()
}
