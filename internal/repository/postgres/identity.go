package postgres

import (
	"context"
	"database/sql"
	"time"

	"norgeskole/internal/domain"
)

// IdentityRepo implements repository.IdentityRepository
type IdentityRepo struct {
	db *sql.DB
}

// NewIdentityRepo creates a new identity repository
func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// CreateIdentity stores a new account. A duplicate email yields domain.ErrEmailTaken.
func (r *IdentityRepo) CreateIdentity(ctx context.Context, email, passwordHash string) (domain.Identity, error) {
	identity := domain.Identity{Email: email, PasswordHash: passwordHash}
	query := `
		INSERT INTO identities (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, email, passwordHash).Scan(&identity.ID, &identity.CreatedAt)
	if isUniqueViolation(err) {
		return domain.Identity{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

// GetIdentityByEmail returns nil when no account uses the email
func (r *IdentityRepo) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var identity domain.Identity
	query := `SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// DeleteIdentity removes the account. Sessions and links cascade.
func (r *IdentityRepo) DeleteIdentity(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOrphanIdentity removes the account only while it still has no profile.
// It reports false when a profile appeared in the meantime.
func (r *IdentityRepo) DeleteOrphanIdentity(ctx context.Context, id string) (bool, error) {
	query := `
		DELETE FROM identities
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM profiles p WHERE p.id = identities.id)
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListOrphanIdentities returns accounts that never got a profile
func (r *IdentityRepo) ListOrphanIdentities(ctx context.Context, olderThan time.Time) ([]domain.Identity, error) {
	query := `
		SELECT i.id, i.email, i.password_hash, i.created_at
		FROM identities i
		LEFT JOIN profiles p ON p.id = i.id
		WHERE p.id IS NULL AND i.created_at < $1
		ORDER BY i.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		var identity domain.Identity
		if err := rows.Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt); err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}
