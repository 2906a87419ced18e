package service

import (
	"context"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/mailer"
	"norgeskole/internal/repository"
)

// InviteCodeLength is the length of generated invite codes
const InviteCodeLength = 12

// InviteInput is the admin form for a new invite link
type InviteInput struct {
	Role        string `json:"role" validate:"required,oneof=admin teacher learner"`
	ClassroomID string `json:"classroom_id" validate:"required,uuid"`
	SingleUse   bool   `json:"single_use"`
}

// InviteAdminService manages invite links for administrators
type InviteAdminService struct {
	invites    repository.InviteRepository
	classrooms repository.ClassroomRepository
	mailer     mailer.Mailer
	baseURL    string
	logger     *zap.Logger
}

// NewInviteAdminService creates a new invite admin service
func NewInviteAdminService(
	invites repository.InviteRepository,
	classrooms repository.ClassroomRepository,
	m mailer.Mailer,
	baseURL string,
	logger *zap.Logger,
) *InviteAdminService {
	return &InviteAdminService{
		invites:    invites,
		classrooms: classrooms,
		mailer:     m,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// NewInviteCode returns a random lowercase base36 code
func NewInviteCode() string {
	u := uuid.New()
	code := new(big.Int).SetBytes(u[:]).Text(36)
	for len(code) < InviteCodeLength {
		code = "0" + code
	}
	return code[len(code)-InviteCodeLength:]
}

// CreateInvite creates an active invite bound to a role and classroom
func (s *InviteAdminService) CreateInvite(ctx context.Context, in InviteInput) (domain.InviteLink, error) {
	in.Role = strings.TrimSpace(in.Role)
	in.ClassroomID = strings.TrimSpace(in.ClassroomID)
	if err := validateStruct(in); err != nil {
		return domain.InviteLink{}, invalid("role", "Velg rolle og klasserom")
	}

	classroom, err := s.classrooms.GetClassroom(ctx, in.ClassroomID)
	if err != nil {
		s.logger.Error("Failed to fetch classroom", zap.String("classroom_id", in.ClassroomID), zap.Error(err))
		return domain.InviteLink{}, err
	}
	if classroom == nil {
		return domain.InviteLink{}, domain.ErrNotFound
	}

	link, err := s.invites.CreateInvite(ctx, domain.InviteLink{
		Code:        NewInviteCode(),
		Role:        domain.Role(in.Role),
		ClassroomID: classroom.ID,
		Active:      true,
		SingleUse:   in.SingleUse,
	})
	if err != nil {
		s.logger.Error("Failed to create invite", zap.String("classroom_id", classroom.ID), zap.Error(err))
		return domain.InviteLink{}, err
	}
	link.ClassroomName = classroom.Name

	s.logger.Info("Invite created",
		zap.String("invite_id", link.ID),
		zap.String("role", string(link.Role)),
		zap.Bool("single_use", link.SingleUse),
	)
	return link, nil
}

// ListInvites returns all invites, newest first
func (s *InviteAdminService) ListInvites(ctx context.Context) ([]domain.InviteLink, error) {
	links, err := s.invites.ListInvites(ctx)
	if err != nil {
		s.logger.Error("Failed to list invites", zap.Error(err))
		return nil, err
	}
	return links, nil
}

// SetActive toggles whether an invite can still be used
func (s *InviteAdminService) SetActive(ctx context.Context, id string, active bool) error {
	if !validInviteID(id) {
		return domain.ErrNotFound
	}
	if err := s.invites.SetInviteActive(ctx, id, active); err != nil {
		s.logger.Error("Failed to toggle invite", zap.String("invite_id", id), zap.Bool("active", active), zap.Error(err))
		return err
	}
	return nil
}

// validInviteID rejects ids the uuid column would refuse
func validInviteID(id string) bool {
	return validate.Var(id, "required,uuid") == nil
}

// InviteURL returns the absolute link for an invite
func (s *InviteAdminService) InviteURL(link domain.InviteLink) string {
	return s.baseURL + link.Path()
}

// SendInvite e-mails an active invite link
func (s *InviteAdminService) SendInvite(ctx context.Context, id, to string) error {
	to = strings.TrimSpace(to)
	if err := validate.Var(to, "required,email"); err != nil {
		return invalid("email", "Ugyldig e-postadresse")
	}

	if !validInviteID(id) {
		return domain.ErrNotFound
	}

	link, err := s.invites.GetInvite(ctx, id)
	if err != nil {
		return err
	}
	if link == nil || !link.Active {
		return domain.ErrNotFound
	}

	if err := s.mailer.SendInvite(ctx, to, s.InviteURL(*link), link.Role); err != nil {
		s.logger.Error("Failed to send invite", zap.String("invite_id", id), zap.Error(err))
		return err
	}
	return nil
}
