package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// MemoryStore is an in-memory invite repository and identity provider.
// One mutex stands in for the database row lock, which is enough for concurrency tests.
type MemoryStore struct {
	mu          sync.Mutex
	seq         int
	invites     map[string]*domain.InviteLink
	redemptions map[string]map[string]bool
	profiles    map[string]domain.Profile
	identities  map[string]domain.Identity

	// FailDelete makes Delete fail, leaving the identity orphaned
	FailDelete bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invites:     make(map[string]*domain.InviteLink),
		redemptions: make(map[string]map[string]bool),
		profiles:    make(map[string]domain.Profile),
		identities:  make(map[string]domain.Identity),
	}
}

func (s *MemoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// AddInvite seeds an active invite
func (s *MemoryStore) AddInvite(code string, role domain.Role, classroomID string, singleUse bool) domain.InviteLink {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := &domain.InviteLink{
		ID:          s.nextID("inv"),
		Code:        code,
		Role:        role,
		ClassroomID: classroomID,
		Active:      true,
		SingleUse:   singleUse,
		CreatedAt:   time.Now(),
	}
	s.invites[link.ID] = link
	return *link
}

// ProfileCount returns the number of stored profiles
func (s *MemoryStore) ProfileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// IdentityCount returns the number of stored identities
func (s *MemoryStore) IdentityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.identities)
}

func (s *MemoryStore) byCode(code string) *domain.InviteLink {
	for _, link := range s.invites {
		if link.Code == code {
			return link
		}
	}
	return nil
}

func (s *MemoryStore) GetInviteRole(_ context.Context, code string) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := s.byCode(code)
	if link == nil || !link.Active {
		return "", domain.ErrInvalidInviteCode
	}
	return link.Role, nil
}

func (s *MemoryStore) RegisterWithInvite(_ context.Context, params repository.RegisterParams) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := s.byCode(params.Code)
	if link == nil || !link.Active || link.Role != params.WantRole {
		return domain.Profile{}, domain.ErrInvalidInviteCode
	}
	if existing, ok := s.profiles[params.IdentityID]; ok {
		if s.redemptions[link.ID][params.IdentityID] {
			return existing, nil
		}
		return domain.Profile{}, domain.ErrAlreadyRegistered
	}
	if link.SingleUse && len(s.redemptions[link.ID]) > 0 {
		return domain.Profile{}, domain.ErrInviteConsumed
	}

	classroomID := link.ClassroomID
	now := time.Now()
	profile := domain.Profile{
		ID:              params.IdentityID,
		Name:            params.Name,
		Email:           params.Email,
		L1:              params.L1,
		Role:            link.Role,
		DifficultyLevel: domain.DefaultDifficulty,
		ClassroomID:     &classroomID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.profiles[profile.ID] = profile
	if s.redemptions[link.ID] == nil {
		s.redemptions[link.ID] = make(map[string]bool)
	}
	s.redemptions[link.ID][params.IdentityID] = true
	return profile, nil
}

func (s *MemoryStore) CreateInvite(_ context.Context, link domain.InviteLink) (domain.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link.ID = s.nextID("inv")
	link.CreatedAt = time.Now()
	stored := link
	s.invites[link.ID] = &stored
	return link, nil
}

func (s *MemoryStore) ListInvites(_ context.Context) ([]domain.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make([]domain.InviteLink, 0, len(s.invites))
	for _, link := range s.invites {
		links = append(links, *link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })
	return links, nil
}

func (s *MemoryStore) GetInvite(_ context.Context, id string) (*domain.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.invites[id]
	if !ok {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (s *MemoryStore) SetInviteActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.invites[id]
	if !ok {
		return domain.ErrNotFound
	}
	link.Active = active
	return nil
}

func (s *MemoryStore) CountActiveInvites(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, link := range s.invites {
		if link.Active {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) SignUp(_ context.Context, email, _ string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, identity := range s.identities {
		if identity.Email == email {
			return domain.Identity{}, domain.ErrEmailTaken
		}
	}
	identity := domain.Identity{ID: s.nextID("id"), Email: email, CreatedAt: time.Now()}
	s.identities[identity.ID] = identity
	return identity, nil
}

func (s *MemoryStore) SignIn(_ context.Context, email, _ string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, identity := range s.identities {
		if identity.Email == email {
			return *NewTestSession(identity.ID), nil
		}
	}
	return domain.Session{}, domain.ErrInvalidCredentials
}

func (s *MemoryStore) SignOut(_ context.Context, _ string) error {
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, _ string) (domain.Session, error) {
	return domain.Session{}, domain.ErrAuthorization
}

func (s *MemoryStore) Delete(_ context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete {
		return fmt.Errorf("delete %s: %w", identityID, domain.ErrRemote)
	}
	delete(s.identities, identityID)
	delete(s.profiles, identityID)
	return nil
}

func (s *MemoryStore) DeleteOrphan(_ context.Context, identityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[identityID]; ok {
		return false, nil
	}
	if _, ok := s.identities[identityID]; !ok {
		return false, nil
	}
	delete(s.identities, identityID)
	return true, nil
}

func (s *MemoryStore) ListOrphans(_ context.Context, _ time.Duration) ([]domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orphans []domain.Identity
	for id, identity := range s.identities {
		if _, ok := s.profiles[id]; !ok {
			orphans = append(orphans, identity)
		}
	}
	return orphans, nil
}

func (s *MemoryStore) CleanupExpiredSessions(_ context.Context) (int64, error) {
	return 0, nil
}
