package middleware

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// ChatIdentityKey is the telebot context key holding the linked identity ID
const ChatIdentityKey = "identity_id"

// ChatLinks looks up the identity a Telegram chat is linked to
type ChatLinks interface {
	GetChatIdentity(ctx context.Context, chatID int64) (string, error)
}

// LinkedChat lets through only chats linked to an identity and stores the identity ID
// under ChatIdentityKey. Unlinked chats are asked to sign in with /start.
func LinkedChat(links ChatLinks, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chatID := c.Sender().ID

			identityID, err := links.GetChatIdentity(context.Background(), chatID)
			if err != nil {
				logger.Error("Failed to look up chat link", zap.Int64("chat_id", chatID), zap.Error(err))
				return c.Send("Noe gikk galt. Prøv igjen senere.")
			}

			if identityID == "" {
				if c.Callback() != nil {
					_ = c.Respond()
				}
				return c.Send("Du er ikke logget inn. Skriv /start for å logge inn.")
			}

			c.Set(ChatIdentityKey, identityID)
			return next(c)
		}
	}
}
