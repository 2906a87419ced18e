package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// ProfileInput is what a user may change on their own profile
type ProfileInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	L1              string `json:"l1" validate:"omitempty,oneof=en es fr de pl ar so ur"`
	DifficultyLevel *int   `json:"difficulty_level"`
}

// ProfileService handles profile reads and edits
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles repository.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// GetProfile returns domain.ErrNotFound for an identity without a profile
func (s *ProfileService) GetProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, identityID)
	if err != nil {
		s.logger.Error("Failed to fetch profile", zap.String("identity_id", identityID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	return profile, nil
}

// UpdateOwnProfile validates and stores the caller's edits. Nothing is written on invalid input.
func (s *ProfileService) UpdateOwnProfile(ctx context.Context, identityID string, in ProfileInput) (*domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.L1 = strings.ToLower(strings.TrimSpace(in.L1))

	if in.DifficultyLevel != nil {
		if err := domain.ValidateDifficulty(*in.DifficultyLevel); err != nil {
			return nil, err
		}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	lang, _ := domain.NormalizeL1(in.L1)
	profile, err := s.profiles.UpdateProfile(ctx, identityID, domain.ProfileUpdate{
		Name:            in.Name,
		Email:           in.Email,
		L1:              lang,
		DifficultyLevel: in.DifficultyLevel,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update profile", zap.String("identity_id", identityID), zap.Error(err))
		}
		return nil, err
	}
	return profile, nil
}

// ListLearners returns the learners of a classroom
func (s *ProfileService) ListLearners(ctx context.Context, classroomID string) ([]domain.Profile, error) {
	learners, err := s.profiles.ListLearners(ctx, classroomID)
	if err != nil {
		s.logger.Error("Failed to list learners", zap.String("classroom_id", classroomID), zap.Error(err))
		return nil, err
	}
	return learners, nil
}

// SetLearnerDifficulty changes a learner's level. Levels outside 1..5 are rejected before any write.
func (s *ProfileService) SetLearnerDifficulty(ctx context.Context, learnerID string, level int) error {
	if err := domain.ValidateDifficulty(level); err != nil {
		return err
	}
	if err := s.profiles.UpdateDifficulty(ctx, learnerID, level); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update difficulty", zap.String("learner_id", learnerID), zap.Error(err))
		}
		return err
	}
	return nil
}
