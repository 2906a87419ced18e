package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/metrics"
	"norgeskole/internal/repository"
)

// compensationTimeout bounds the identity deletion that undoes a failed registration
const compensationTimeout = 10 * time.Second

// RegistrationRequest is the input of the full invite sign-up
type RegistrationRequest struct {
	Code     string `json:"code" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
	L1       string `json:"l1" validate:"omitempty,oneof=en es fr de pl ar so ur"`
}

// InvitationService turns invite codes into registered profiles
type InvitationService struct {
	invites  repository.InviteRepository
	identity IdentityProvider
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invites repository.InviteRepository, identity IdentityProvider, m *metrics.Metrics, logger *zap.Logger) *InvitationService {
	return &InvitationService{
		invites:  invites,
		identity: identity,
		metrics:  m,
		logger:   logger,
	}
}

// ResolveInviteRole returns the role an invite code grants. It has no side effects.
// Every failure, including malformed input, is reported as domain.ErrInvalidInviteCode.
func (s *InvitationService) ResolveInviteRole(ctx context.Context, code string) (domain.Role, error) {
	code, ok := domain.NormalizeInviteCode(code)
	if !ok {
		return "", domain.ErrInvalidInviteCode
	}

	role, err := s.invites.GetInviteRole(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInviteCode) {
			s.logger.Error("Failed to resolve invite code", zap.String("invite_code", code), zap.Error(err))
		}
		return "", domain.ErrInvalidInviteCode
	}
	if !role.Valid() {
		s.logger.Error("Invite code bound to unknown role",
			zap.String("invite_code", code),
			zap.String("role", string(role)),
		)
		return "", domain.ErrInvalidInviteCode
	}
	return role, nil
}

// RegisterWithInvite creates the profile for an identity that already exists.
// Repeating it for the same code and identity returns the same profile.
func (s *InvitationService) RegisterWithInvite(ctx context.Context, session domain.Session, code, name, l1 string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, invalid("name", "Navn kan ikke være tomt")
	}
	lang, ok := domain.NormalizeL1(l1)
	if !ok {
		return domain.Profile{}, invalid("l1", "Ukjent morsmål")
	}

	role, err := s.ResolveInviteRole(ctx, code)
	if err != nil {
		return domain.Profile{}, err
	}

	code, _ = domain.NormalizeInviteCode(code)
	return s.register(ctx, repository.RegisterParams{
		Code:       code,
		IdentityID: session.IdentityID,
		Email:      session.Email,
		Name:       name,
		L1:         lang,
		WantRole:   role,
	})
}

func (s *InvitationService) register(ctx context.Context, params repository.RegisterParams) (domain.Profile, error) {
	profile, err := s.invites.RegisterWithInvite(ctx, params)
	if err == nil {
		return profile, nil
	}

	s.logger.Error("Failed to register profile",
		zap.String("identity_id", params.IdentityID),
		zap.String("invite_code", params.Code),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, domain.ErrInvalidInviteCode),
		errors.Is(err, domain.ErrInviteConsumed),
		errors.Is(err, domain.ErrAlreadyRegistered):
		return domain.Profile{}, fmt.Errorf("%w: %w", domain.ErrProfileRegistration, err)
	}
	return domain.Profile{}, fmt.Errorf("%w: %w", domain.ErrProfileRegistration, errors.Join(domain.ErrRemote, err))
}

// Register runs the full sign-up: resolve the code, create the identity, register the profile.
// Calls run strictly in order and the first failure abandons the flow.
// A failed profile registration deletes the new identity; if that also fails the
// result wraps domain.ErrOrphanedIdentity and the identity can finish later via RegisterWithInvite.
func (s *InvitationService) Register(ctx context.Context, req RegistrationRequest) (*domain.Registration, error) {
	reg := domain.NewRegistration(strings.TrimSpace(req.Code))
	defer s.observe(reg)

	req.Name = strings.TrimSpace(req.Name)
	req.L1 = strings.ToLower(strings.TrimSpace(req.L1))
	if err := validateStruct(req); err != nil {
		reg.Abandon(err)
		return reg, reg.Err
	}

	role, err := s.ResolveInviteRole(ctx, req.Code)
	if err != nil {
		reg.Abandon(err)
		return reg, reg.Err
	}
	s.checkTransition(reg, reg.ResolveCode(role))

	identity, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Error("Failed to create identity", zap.String("invite_code", reg.Code), zap.Error(err))
		if !errors.Is(err, domain.ErrEmailTaken) && !errors.Is(err, domain.ErrValidation) {
			err = fmt.Errorf("%w: %w", domain.ErrIdentityCreation, err)
		}
		reg.Abandon(err)
		return reg, reg.Err
	}
	s.checkTransition(reg, reg.CreateIdentity(identity.ID))

	lang, _ := domain.NormalizeL1(req.L1)
	profile, err := s.register(ctx, repository.RegisterParams{
		Code:       reg.Code,
		IdentityID: identity.ID,
		Email:      identity.Email,
		Name:       req.Name,
		L1:         lang,
		WantRole:   role,
	})
	if err != nil {
		s.compensate(ctx, reg, err)
		return reg, reg.Err
	}

	s.checkTransition(reg, reg.Register(profile))
	return reg, nil
}

// checkTransition logs a refused state change. Register only moves forward in order,
// so a refusal means the flow itself is broken.
func (s *InvitationService) checkTransition(reg *domain.Registration, err error) {
	if err == nil {
		return
	}
	s.logger.Error("Registration state transition refused",
		zap.String("state", string(reg.State)),
		zap.String("invite_code", reg.Code),
		zap.String("identity_id", reg.IdentityID),
		zap.Error(err),
	)
}

// compensate deletes the identity created by an abandoned registration
func (s *InvitationService) compensate(ctx context.Context, reg *domain.Registration, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.identity.Delete(cctx, reg.IdentityID); err != nil {
		s.logger.Error("Failed to delete identity after failed registration",
			zap.String("identity_id", reg.IdentityID),
			zap.String("invite_code", reg.Code),
			zap.Error(err),
		)
		reg.Abandon(fmt.Errorf("%w: %w", domain.ErrOrphanedIdentity, cause))
		return
	}

	reg.Compensated = true
	reg.Abandon(cause)
}

func (s *InvitationService) observe(reg *domain.Registration) {
	outcome := string(reg.State)
	switch {
	case reg.Orphaned():
		outcome = "orphaned"
	case reg.State == domain.StateAbandoned:
		outcome = "abandoned_at_" + string(reg.FailedAt)
	}
	s.metrics.ObserveRegistration(outcome)

	if reg.State == domain.StateRegistered {
		s.logger.Info("Registration completed",
			zap.String("identity_id", reg.IdentityID),
			zap.String("role", string(reg.Role)),
		)
		return
	}
	s.logger.Warn("Registration abandoned",
		zap.String("stage", string(reg.FailedAt)),
		zap.String("invite_code", reg.Code),
		zap.Bool("orphaned", reg.Orphaned()),
		zap.Error(reg.Err),
	)
}
