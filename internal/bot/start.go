package bot

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"norgeskole/internal/domain"
)

const menuText = "🏠 Meny\n\nVelg hva du vil gjøre:"

// handleStart shows the menu to linked chats and starts sign-in for the rest
func (h *Handler) handleStart(c tele.Context) error {
	chatID := c.Sender().ID

	h.logger.Info("Chat started bot",
		zap.Int64("chat_id", chatID),
		zap.String("username", c.Sender().Username),
	)

	ctx, cancel := requestContext()
	defer cancel()

	identityID, err := h.links.GetChatIdentity(ctx, chatID)
	if err != nil {
		h.logger.Error("Failed to look up chat link", zap.Int64("chat_id", chatID), zap.Error(err))
		return c.Send(errorMessage)
	}

	if identityID == "" {
		h.SetState(chatID, &loginState{Step: stepWaitingEmail})
		return c.Send("Hei! Skriv e-postadressen du bruker på Norgeskole:")
	}

	h.ResetState(chatID)
	return c.Send(menuText, mainMenuMarkup())
}

// handleText drives the e-mail and password steps of sign-in
func (h *Handler) handleText(c tele.Context) error {
	chatID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	if strings.HasPrefix(text, "/") {
		return nil
	}

	state := h.GetState(chatID)

	switch state.Step {
	case stepWaitingEmail:
		h.SetState(chatID, &loginState{Step: stepWaitingPassword, Email: text})
		return c.Send("Skriv passordet ditt:")

	case stepWaitingPassword:
		// the password should not stay in the chat history
		if err := c.Delete(); err != nil {
			h.logger.Debug("Failed to delete password message", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return h.signIn(c, state.Email, text)

	default:
		return c.Send("Skriv /start for å åpne menyen.")
	}
}

func (h *Handler) signIn(c tele.Context, email, password string) error {
	chatID := c.Sender().ID
	ctx, cancel := requestContext()
	defer cancel()

	session, err := h.identity.SignIn(ctx, email, password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.SetState(chatID, &loginState{Step: stepWaitingEmail})
		return c.Send("Feil e-post eller passord. Skriv e-postadressen din på nytt:")
	}
	if err != nil {
		h.ResetState(chatID)
		h.logger.Error("Failed to sign in from chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return c.Send(errorMessage)
	}

	// the chat link replaces the web session
	defer func() {
		if err := h.identity.SignOut(ctx, session.ID); err != nil {
			h.logger.Warn("Failed to close bot sign-in session", zap.String("identity_id", session.IdentityID), zap.Error(err))
		}
	}()

	h.ResetState(chatID)

	profile, err := h.profiles.GetProfile(ctx, session.IdentityID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("Failed to fetch profile for chat", zap.String("identity_id", session.IdentityID), zap.Error(err))
		return c.Send(errorMessage)
	}
	if profile == nil || profile.Role != domain.RoleLearner {
		return c.Send("Boten er bare for elever. Bruk nettsiden for å logge inn.")
	}

	if err := h.links.LinkChat(ctx, chatID, session.IdentityID); err != nil {
		h.logger.Error("Failed to link chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return c.Send(errorMessage)
	}

	h.logger.Info("Chat linked", zap.Int64("chat_id", chatID), zap.String("identity_id", session.IdentityID))
	return c.Send("✅ Du er logget inn, "+profile.Name+"!\n\n"+menuText, mainMenuMarkup())
}
