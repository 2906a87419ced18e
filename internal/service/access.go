package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/events"
	"norgeskole/internal/metrics"
	"norgeskole/internal/repository"
)

// AccessService decides whether a session may open a role-gated view
type AccessService struct {
	identity IdentityProvider
	profiles repository.ProfileRepository
	bus      events.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAccessService creates a new access service
func NewAccessService(identity IdentityProvider, profiles repository.ProfileRepository, bus events.Bus, m *metrics.Metrics, logger *zap.Logger) *AccessService {
	return &AccessService{
		identity: identity,
		profiles: profiles,
		bus:      bus,
		metrics:  m,
		logger:   logger,
	}
}

// Session resolves a bearer token. Any failure yields nil.
func (s *AccessService) Session(ctx context.Context, token string) *domain.Session {
	if token == "" {
		return nil
	}
	session, err := s.identity.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrAuthorization) {
			s.logger.Error("Failed to resolve session", zap.Error(err))
		}
		return nil
	}
	return &session
}

// Authorize applies the routing rule. It fails closed: a profile that cannot be
// fetched sends the user back to the entry page. A nil required role only needs a session.
func (s *AccessService) Authorize(ctx context.Context, session *domain.Session, required *domain.Role) domain.Decision {
	decision, _ := s.authorize(ctx, session, required)
	s.metrics.ObserveDecision(decision.String())
	return decision
}

// AuthorizeProfile is Authorize that also returns the profile it checked
func (s *AccessService) AuthorizeProfile(ctx context.Context, session *domain.Session, required *domain.Role) (domain.Decision, *domain.Profile) {
	decision, profile := s.authorize(ctx, session, required)
	s.metrics.ObserveDecision(decision.String())
	return decision, profile
}

func (s *AccessService) authorize(ctx context.Context, session *domain.Session, required *domain.Role) (domain.Decision, *domain.Profile) {
	if session == nil {
		return domain.RedirectTo(domain.EntryRoute), nil
	}

	profile, err := s.profiles.GetProfile(ctx, session.IdentityID)
	if err != nil {
		s.logger.Error("Failed to fetch profile for authorization",
			zap.String("identity_id", session.IdentityID),
			zap.Error(err),
		)
		return domain.RedirectTo(domain.EntryRoute), nil
	}
	if profile == nil {
		return domain.RedirectTo(domain.EntryRoute), nil
	}

	if required != nil && profile.Role != *required {
		return domain.RedirectTo(profile.Role.Home()), profile
	}
	return domain.Allowed(), profile
}

// AuthorizeRoute resolves the token and checks it against the role the path requires.
// Public and unknown paths are always allowed.
func (s *AccessService) AuthorizeRoute(ctx context.Context, token, path string) domain.Decision {
	return s.decide(ctx, s.Session(ctx, token), path)
}

func (s *AccessService) decide(ctx context.Context, session *domain.Session, path string) domain.Decision {
	required, public := domain.RouteRole(path)
	if public || required == nil {
		s.metrics.ObserveDecision(domain.Allowed().String())
		return domain.Allowed()
	}
	return s.Authorize(ctx, session, required)
}

// Watch emits the decision for path now and again whenever the identity signs in or out.
// The channel closes when ctx is done or the session can no longer be resolved.
// The bus subscription is released on every exit path.
func (s *AccessService) Watch(ctx context.Context, token, path string) <-chan domain.Decision {
	out := make(chan domain.Decision, 1)
	session := s.Session(ctx, token)

	var updates <-chan events.Event
	release := func() {}
	if session != nil {
		updates, release = s.bus.Subscribe(session.IdentityID)
	}

	go func() {
		defer close(out)
		defer release()

		last := s.decide(ctx, session, path)
		if !emit(ctx, out, last) || session == nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-updates:
				if !ok {
					return
				}
				s.logger.Debug("Re-evaluating route after identity event",
					zap.String("identity_id", e.IdentityID),
					zap.String("kind", string(e.Kind)),
				)

				session = s.Session(ctx, token)
				next := s.decide(ctx, session, path)
				if next != last {
					if !emit(ctx, out, next) {
						return
					}
					last = next
				}
				if session == nil {
					return
				}
			}
		}
	}()

	return out
}

func emit(ctx context.Context, out chan<- domain.Decision, d domain.Decision) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
