package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// InviteRepo implements repository.InviteRepository
type InviteRepo struct {
	db *sql.DB
}

// NewInviteRepo creates a new invite repository
func NewInviteRepo(db *sql.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

// GetInviteRole resolves an active code to its role without side effects
func (r *InviteRepo) GetInviteRole(ctx context.Context, code string) (domain.Role, error) {
	code, ok := domain.NormalizeInviteCode(code)
	if !ok {
		return "", domain.ErrInvalidInviteCode
	}

	var role domain.Role
	query := `SELECT role FROM admin_invite_links WHERE code = $1 AND active = TRUE`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&role)
	if err == sql.ErrNoRows {
		return "", domain.ErrInvalidInviteCode
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// RegisterWithInvite creates the caller's profile from an invite in one transaction.
// The invite row is locked so single-use codes are consumed exactly once.
// Repeating the call for the same (code, identity) returns the existing profile.
func (r *InviteRepo) RegisterWithInvite(ctx context.Context, params repository.RegisterParams) (domain.Profile, error) {
	code, ok := domain.NormalizeInviteCode(params.Code)
	if !ok {
		return domain.Profile{}, domain.ErrInvalidInviteCode
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var invite domain.InviteLink
	lockQuery := `
		SELECT id, role, classroom_id, active, single_use
		FROM admin_invite_links
		WHERE code = $1
		FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, lockQuery, code).Scan(
		&invite.ID, &invite.Role, &invite.ClassroomID, &invite.Active, &invite.SingleUse,
	)
	if err == sql.ErrNoRows {
		return domain.Profile{}, domain.ErrInvalidInviteCode
	}
	if err != nil {
		return domain.Profile{}, err
	}
	if !invite.Active || invite.Role != params.WantRole {
		return domain.Profile{}, domain.ErrInvalidInviteCode
	}

	existing, err := scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, params.IdentityID))
	switch {
	case err == nil:
		var redeemed bool
		redeemedQuery := `SELECT EXISTS (SELECT 1 FROM invite_redemptions WHERE invite_id = $1 AND identity_id = $2)`
		if err := tx.QueryRowContext(ctx, redeemedQuery, invite.ID, params.IdentityID).Scan(&redeemed); err != nil {
			return domain.Profile{}, err
		}
		if !redeemed {
			return domain.Profile{}, domain.ErrAlreadyRegistered
		}
		return existing, nil
	case err != sql.ErrNoRows:
		return domain.Profile{}, err
	}

	if invite.SingleUse {
		var used int
		usedQuery := `SELECT COUNT(*) FROM invite_redemptions WHERE invite_id = $1`
		if err := tx.QueryRowContext(ctx, usedQuery, invite.ID).Scan(&used); err != nil {
			return domain.Profile{}, err
		}
		if used > 0 {
			return domain.Profile{}, domain.ErrInviteConsumed
		}
	}

	insertQuery := `
		INSERT INTO profiles (id, name, email, l1, role, difficulty_level, classroom_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + profileColumns
	profile, err := scanProfile(tx.QueryRowContext(ctx, insertQuery,
		params.IdentityID, params.Name, params.Email, params.L1, invite.Role, domain.DefaultDifficulty, invite.ClassroomID,
	))
	if err != nil {
		return domain.Profile{}, err
	}

	redeemQuery := `INSERT INTO invite_redemptions (invite_id, identity_id) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, redeemQuery, invite.ID, params.IdentityID); err != nil {
		return domain.Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Profile{}, fmt.Errorf("commit registration: %w", err)
	}
	return profile, nil
}

// CreateInvite stores a new invite link
func (r *InviteRepo) CreateInvite(ctx context.Context, link domain.InviteLink) (domain.InviteLink, error) {
	query := `
		INSERT INTO admin_invite_links (code, role, classroom_id, active, single_use)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, link.Code, link.Role, link.ClassroomID, link.Active, link.SingleUse).
		Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		return domain.InviteLink{}, err
	}
	return link, nil
}

const inviteSelect = `
	SELECT l.id, l.code, l.role, l.classroom_id, COALESCE(c.name, ''), l.active, l.single_use, l.created_at
	FROM admin_invite_links l
	LEFT JOIN classrooms c ON c.id = l.classroom_id
`

func scanInvite(row rowScanner) (domain.InviteLink, error) {
	var l domain.InviteLink
	err := row.Scan(&l.ID, &l.Code, &l.Role, &l.ClassroomID, &l.ClassroomName, &l.Active, &l.SingleUse, &l.CreatedAt)
	return l, err
}

// ListInvites returns all invite links with classroom names, newest first
func (r *InviteRepo) ListInvites(ctx context.Context) ([]domain.InviteLink, error) {
	rows, err := r.db.QueryContext(ctx, inviteSelect+` ORDER BY l.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.InviteLink
	for rows.Next() {
		l, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetInvite returns nil when the invite does not exist
func (r *InviteRepo) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	l, err := scanInvite(r.db.QueryRowContext(ctx, inviteSelect+` WHERE l.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SetInviteActive activates or deactivates an invite
func (r *InviteRepo) SetInviteActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE admin_invite_links SET active = $2 WHERE id = $1`, id, active)
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

// CountActiveInvites counts invites that can still be used
func (r *InviteRepo) CountActiveInvites(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_invite_links WHERE active = TRUE`).Scan(&count)
	return count, err
}
