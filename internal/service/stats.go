package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// StatsService computes dashboard counters
type StatsService struct {
	words      repository.DailyWordRepository
	profiles   repository.ProfileRepository
	classrooms repository.ClassroomRepository
	invites    repository.InviteRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	words repository.DailyWordRepository,
	profiles repository.ProfileRepository,
	classrooms repository.ClassroomRepository,
	invites repository.InviteRepository,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		words:      words,
		profiles:   profiles,
		classrooms: classrooms,
		invites:    invites,
		logger:     logger,
		now:        time.Now,
	}
}

// TeacherStats counts this month's daily words and the learners of the teacher's classroom
func (s *StatsService) TeacherStats(ctx context.Context, teacher domain.Profile) (domain.TeacherStats, error) {
	if teacher.ClassroomID == nil {
		return domain.TeacherStats{}, nil
	}
	classroomID := *teacher.ClassroomID

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	words, err := s.words.CountDailyWordsSince(ctx, classroomID, monthStart)
	if err != nil {
		s.logger.Error("Failed to count daily words", zap.String("classroom_id", classroomID), zap.Error(err))
		return domain.TeacherStats{}, err
	}

	learners, err := s.profiles.CountLearners(ctx, classroomID)
	if err != nil {
		s.logger.Error("Failed to count learners", zap.String("classroom_id", classroomID), zap.Error(err))
		return domain.TeacherStats{}, err
	}

	return domain.TeacherStats{DailyWordsThisMonth: words, Learners: learners}, nil
}

// AdminStats counts classrooms and active invites
func (s *StatsService) AdminStats(ctx context.Context) (domain.AdminStats, error) {
	classrooms, err := s.classrooms.CountClassrooms(ctx)
	if err != nil {
		s.logger.Error("Failed to count classrooms", zap.Error(err))
		return domain.AdminStats{}, err
	}

	invites, err := s.invites.CountActiveInvites(ctx)
	if err != nil {
		s.logger.Error("Failed to count active invites", zap.Error(err))
		return domain.AdminStats{}, err
	}

	return domain.AdminStats{Classrooms: classrooms, ActiveInvites: invites}, nil
}
