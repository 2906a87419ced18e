package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MaintenanceService removes expired sessions and identities that never got a profile
type MaintenanceService struct {
	identity    IdentityProvider
	orphanGrace time.Duration
	logger      *zap.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(identity IdentityProvider, orphanGrace time.Duration, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		identity:    identity,
		orphanGrace: orphanGrace,
		logger:      logger,
	}
}

// Cleanup runs one maintenance pass. It keeps going after a failed deletion and
// returns the first error it met.
func (s *MaintenanceService) Cleanup(ctx context.Context) error {
	s.logger.Info("Starting cleanup", zap.Duration("orphan_grace", s.orphanGrace))

	var firstErr error

	deleted, err := s.identity.CleanupExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("Failed to delete expired sessions", zap.Error(err))
		firstErr = err
	} else {
		s.logger.Info("Expired sessions deleted", zap.Int64("count", deleted))
	}

	orphans, err := s.identity.ListOrphans(ctx, s.orphanGrace)
	if err != nil {
		s.logger.Error("Failed to list orphaned identities", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	removed := 0
	for _, orphan := range orphans {
		deleted, err := s.identity.DeleteOrphan(ctx, orphan.ID)
		if err != nil {
			s.logger.Error("Failed to delete orphaned identity", zap.String("identity_id", orphan.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !deleted {
			s.logger.Info("Orphaned identity registered before deletion, skipping", zap.String("identity_id", orphan.ID))
			continue
		}
		removed++
		s.logger.Info("Orphaned identity deleted", zap.String("identity_id", orphan.ID))
	}

	s.logger.Info("Cleanup completed", zap.Int("orphans", len(orphans)), zap.Int("removed", removed))
	return firstErr
}

// Run cleans up once at startup, then on every tick until ctx is cancelled
func (s *MaintenanceService) Run(ctx context.Context, interval time.Duration) {
	if err := s.Cleanup(ctx); err != nil {
		s.logger.Error("Failed to run initial cleanup", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			s.logger.Info("Running scheduled cleanup")
			if err := s.Cleanup(ctx); err != nil {
				s.logger.Error("Failed to run scheduled cleanup", zap.Error(err))
			}
		}
	}
}
