package postgres

import (
	"context"
	"database/sql"

	"norgeskole/internal/domain"
)

// ClassroomRepo implements repository.ClassroomRepository
type ClassroomRepo struct {
	db *sql.DB
}

// NewClassroomRepo creates a new classroom repository
func NewClassroomRepo(db *sql.DB) *ClassroomRepo {
	return &ClassroomRepo{db: db}
}

// CreateClassroom stores a classroom
func (r *ClassroomRepo) CreateClassroom(ctx context.Context, name string) (domain.Classroom, error) {
	c := domain.Classroom{Name: name}
	query := `INSERT INTO classrooms (name) VALUES ($1) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.CreatedAt); err != nil {
		return domain.Classroom{}, err
	}
	return c, nil
}

// ListClassrooms returns all classrooms ordered by name
func (r *ClassroomRepo) ListClassrooms(ctx context.Context) ([]domain.Classroom, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM classrooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classrooms []domain.Classroom
	for rows.Next() {
		var c domain.Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

// GetClassroom returns nil when the classroom does not exist
func (r *ClassroomRepo) GetClassroom(ctx context.Context, id string) (*domain.Classroom, error) {
	var c domain.Classroom
	query := `SELECT id, name, created_at FROM classrooms WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountClassrooms counts all classrooms
func (r *ClassroomRepo) CountClassrooms(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classrooms`).Scan(&count)
	return count, err
}
