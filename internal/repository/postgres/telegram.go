package postgres

import (
	"context"
	"database/sql"
)

// TelegramLinkRepo implements repository.TelegramLinkRepository
type TelegramLinkRepo struct {
	db *sql.DB
}

// NewTelegramLinkRepo creates a new telegram link repository
func NewTelegramLinkRepo(db *sql.DB) *TelegramLinkRepo {
	return &TelegramLinkRepo{db: db}
}

// LinkChat binds a chat to an identity, replacing any previous binding
func (r *TelegramLinkRepo) LinkChat(ctx context.Context, chatID int64, identityID string) error {
	query := `
		INSERT INTO telegram_links (chat_id, identity_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id)
		DO UPDATE SET identity_id = EXCLUDED.identity_id, linked_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, chatID, identityID)
	return err
}

// GetChatIdentity returns "" for an unlinked chat
func (r *TelegramLinkRepo) GetChatIdentity(ctx context.Context, chatID int64) (string, error) {
	var identityID string
	query := `SELECT identity_id FROM telegram_links WHERE chat_id = $1`
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(&identityID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return identityID, err
}

// UnlinkChat removes the binding
func (r *TelegramLinkRepo) UnlinkChat(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM telegram_links WHERE chat_id = $1`, chatID)
	return err
}
