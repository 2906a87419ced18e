package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
)

// SessionCookie is the cookie holding the session token for browser clients
const SessionCookie = "session"

// Toast is the user-facing message shape used by every error response
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NoAccess is shown when a gated view redirects the user
var NoAccess = Toast{Title: "Ingen tilgang", Description: "Du har ikke tilgang til denne siden"}

// Authorizer resolves tokens and applies the routing rule
type Authorizer interface {
	Session(ctx context.Context, token string) *domain.Session
	AuthorizeProfile(ctx context.Context, session *domain.Session, required *domain.Role) (domain.Decision, *domain.Profile)
}

type sessionKey struct{}
type profileKey struct{}

// SessionFrom returns the session stored by RequireSession or RequireRole
func SessionFrom(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return session
}

// ProfileFrom returns the profile stored by RequireRole
func ProfileFrom(ctx context.Context) *domain.Profile {
	profile, _ := ctx.Value(profileKey{}).(*domain.Profile)
	return profile
}

// WithSession stores a session in ctx
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// WithProfile stores a profile in ctx
func WithProfile(ctx context.Context, profile *domain.Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, profile)
}

// Token reads the bearer token, falling back to the session cookie
func Token(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession rejects requests without a live session and redirects them to the entry page
func RequireSession(access Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := access.Session(r.Context(), Token(r))
			if session == nil {
				redirect(w, r, domain.EntryRoute)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole lets through only sessions whose profile has the given role.
// Everyone else gets 303 See Other to where the routing rule sends them, never 403.
func RequireRole(access Authorizer, role domain.Role, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := access.Session(r.Context(), Token(r))
			decision, profile := access.AuthorizeProfile(r.Context(), session, &role)
			if !decision.Allow {
				logger.Debug("Request redirected",
					zap.String("path", r.URL.Path),
					zap.String("required_role", string(role)),
					zap.String("redirect", decision.Redirect),
				)
				redirect(w, r, decision.Redirect)
				return
			}

			ctx := WithProfile(WithSession(r.Context(), session), profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func redirect(w http.ResponseWriter, _ *http.Request, target string) {
	w.Header().Set("Location", target)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusSeeOther)
	_ = json.NewEncoder(w).Encode(NoAccess)
}
