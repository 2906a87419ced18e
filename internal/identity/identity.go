package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"norgeskole/internal/domain"
	"norgeskole/internal/events"
	"norgeskole/internal/repository"
)

// MinPasswordLength is the shortest password accepted at sign-up
const MinPasswordLength = 6

// Service authenticates identities and issues revocable session tokens
type Service struct {
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
	bus        events.Bus
	secret     []byte
	issuer     string
	ttl        time.Duration
	cost       int
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new identity service
func NewService(
	identities repository.IdentityRepository,
	sessions repository.SessionRepository,
	bus events.Bus,
	secret, issuer string,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		identities: identities,
		sessions:   sessions,
		bus:        bus,
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		cost:       bcrypt.DefaultCost,
		logger:     logger,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an identity. It never creates a profile.
func (s *Service) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	email = NormalizeEmail(email)

	var fields []domain.FieldError
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, domain.FieldError{Field: "email", Message: "Ugyldig e-postadresse"})
	}
	if len(password) < MinPasswordLength {
		fields = append(fields, domain.FieldError{Field: "password", Message: "Passordet må ha minst 6 tegn"})
	}
	if len(fields) > 0 {
		return domain.Identity{}, &domain.ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityCreation, err)
	}

	identity, err := s.identities.CreateIdentity(ctx, email, string(hash))
	if errors.Is(err, domain.ErrEmailTaken) {
		return domain.Identity{}, err
	}
	if err != nil {
		s.logger.Error("Failed to create identity", zap.String("email", email), zap.Error(err))
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityCreation, err)
	}

	s.logger.Info("Identity created", zap.String("identity_id", identity.ID))
	return identity, nil
}

// SignIn checks the password and opens a session
func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = NormalizeEmail(email)

	identity, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to look up identity", zap.String("email", email), zap.Error(err))
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	if identity == nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, *identity)
}

func (s *Service) openSession(ctx context.Context, identity domain.Identity) (domain.Session, error) {
	now := s.now().UTC()
	session := domain.Session{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		Email:      identity.Email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	token, err := newToken(s.secret, s.issuer, identity.ID, session.ID, identity.Email, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	session.Token = token

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to store session", zap.String("identity_id", identity.ID), zap.Error(err))
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}

	s.publish(ctx, events.SignedIn, identity.ID)
	return session, nil
}

// SignOut revokes a session. Unknown sessions are ignored.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	if session == nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}

	s.publish(ctx, events.SignedOut, session.IdentityID)
	return nil
}

// Resolve validates a token and returns its live session
func (s *Service) Resolve(ctx context.Context, token string) (domain.Session, error) {
	claims, err := parseToken(s.secret, s.issuer, token)
	if err != nil {
		return domain.Session{}, domain.ErrAuthorization
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrRemote, err)
	}
	if session == nil || session.IdentityID != claims.Subject || session.IsExpired() {
		return domain.Session{}, domain.ErrAuthorization
	}

	session.Token = token
	return *session, nil
}

// Delete removes an identity and its sessions. Used to compensate a failed registration.
func (s *Service) Delete(ctx context.Context, identityID string) error {
	if err := s.sessions.DeleteIdentitySessions(ctx, identityID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.identities.DeleteIdentity(ctx, identityID); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	s.publish(ctx, events.SignedOut, identityID)
	return nil
}

// DeleteOrphan removes an identity that still has no profile. Sessions cascade.
// It returns false, and changes nothing, once the identity has registered a profile.
func (s *Service) DeleteOrphan(ctx context.Context, identityID string) (bool, error) {
	deleted, err := s.identities.DeleteOrphanIdentity(ctx, identityID)
	if err != nil {
		return false, fmt.Errorf("delete orphaned identity: %w", err)
	}
	if deleted {
		s.publish(ctx, events.SignedOut, identityID)
	}
	return deleted, nil
}

// ListOrphans returns identities without a profile that are older than grace
func (s *Service) ListOrphans(ctx context.Context, grace time.Duration) ([]domain.Identity, error) {
	return s.identities.ListOrphanIdentities(ctx, s.now().Add(-grace))
}

// CleanupExpiredSessions removes sessions past their expiry
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx)
}

func (s *Service) publish(ctx context.Context, kind events.Kind, identityID string) {
	err := s.bus.Publish(ctx, events.Event{Kind: kind, IdentityID: identityID, At: s.now()})
	if err != nil {
		s.logger.Warn("Failed to publish identity event",
			zap.String("kind", string(kind)),
			zap.String("identity_id", identityID),
			zap.Error(err),
		)
	}
}
