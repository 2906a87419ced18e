package postgres

import (
	"context"
	"database/sql"

	"norgeskole/internal/domain"
)

const profileColumns = `id, name, email, l1, role, difficulty_level, classroom_id, created_at, updated_at`

// ProfileRepo implements repository.ProfileRepository
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var p domain.Profile
	var l1, classroomID sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Email, &l1, &p.Role, &p.DifficultyLevel, &classroomID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, err
	}
	p.L1 = stringPtr(l1)
	p.ClassroomID = stringPtr(classroomID)
	return p, nil
}

// GetProfile returns nil when the identity has no profile
func (r *ProfileRepo) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes the user-editable fields. A nil difficulty keeps the stored level.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	query := `
		UPDATE profiles
		SET name = $2, email = $3, l1 = $4,
			difficulty_level = COALESCE($5, difficulty_level),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id, upd.Name, upd.Email, upd.L1, upd.DifficultyLevel))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateDifficulty sets a learner's level
func (r *ProfileRepo) UpdateDifficulty(ctx context.Context, id string, level int) error {
	query := `
		UPDATE profiles
		SET difficulty_level = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'learner'
	`
	result, err := r.db.ExecContext(ctx, query, id, level)
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

// ListLearners returns the learners of a classroom ordered by name
func (r *ProfileRepo) ListLearners(ctx context.Context, classroomID string) ([]domain.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE classroom_id = $1 AND role = 'learner'
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var learners []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		learners = append(learners, p)
	}
	return learners, rows.Err()
}

// CountLearners counts the learners of a classroom
func (r *ProfileRepo) CountLearners(ctx context.Context, classroomID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM profiles WHERE classroom_id = $1 AND role = 'learner'`
	err := r.db.QueryRowContext(ctx, query, classroomID).Scan(&count)
	return count, err
}
