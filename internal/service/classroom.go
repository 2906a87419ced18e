package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// ClassroomService manages classrooms
type ClassroomService struct {
	classrooms repository.ClassroomRepository
	logger     *zap.Logger
}

// NewClassroomService creates a new classroom service
func NewClassroomService(classrooms repository.ClassroomRepository, logger *zap.Logger) *ClassroomService {
	return &ClassroomService{
		classrooms: classrooms,
		logger:     logger,
	}
}

// CreateClassroom stores a classroom with a trimmed, non-empty name
func (s *ClassroomService) CreateClassroom(ctx context.Context, name string) (domain.Classroom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Classroom{}, invalid("name", "Navn kan ikke være tomt")
	}

	classroom, err := s.classrooms.CreateClassroom(ctx, name)
	if err != nil {
		s.logger.Error("Failed to create classroom", zap.String("name", name), zap.Error(err))
		return domain.Classroom{}, err
	}
	s.logger.Info("Classroom created", zap.String("classroom_id", classroom.ID), zap.String("name", name))
	return classroom, nil
}

// ListClassrooms returns all classrooms ordered by name
func (s *ClassroomService) ListClassrooms(ctx context.Context) ([]domain.Classroom, error) {
	classrooms, err := s.classrooms.ListClassrooms(ctx)
	if err != nil {
		s.logger.Error("Failed to list classrooms", zap.Error(err))
		return nil, err
	}
	return classrooms, nil
}
