package postgres

import (
	"context"
	"database/sql"

	"norgeskole/internal/domain"
)

// SessionRepo implements repository.SessionRepository
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// CreateSession stores an issued session
func (r *SessionRepo) CreateSession(ctx context.Context, session domain.Session) error {
	query := `
		INSERT INTO identity_sessions (id, identity_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.IdentityID, session.CreatedAt, session.ExpiresAt)
	return err
}

// GetSession returns nil when the session was revoked or never existed
func (r *SessionRepo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	query := `
		SELECT s.id, s.identity_id, i.email, s.created_at, s.expires_at
		FROM identity_sessions s
		JOIN identities i ON i.id = s.identity_id
		WHERE s.id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.IdentityID, &s.Email, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession revokes a single session
func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM identity_sessions WHERE id = $1`, id)
	return err
}

// DeleteIdentitySessions revokes every session of an identity
func (r *SessionRepo) DeleteIdentitySessions(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM identity_sessions WHERE identity_id = $1`, identityID)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many
func (r *SessionRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identity_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
