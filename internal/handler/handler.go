package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/metrics"
	"norgeskole/internal/middleware"
	"norgeskole/internal/service"
)

// Services are the application services the HTTP API exposes
type Services struct {
	Identity    service.IdentityProvider
	Access      *service.AccessService
	Invitations *service.InvitationService
	Profiles    *service.ProfileService
	Classrooms  *service.ClassroomService
	Invites     *service.InviteAdminService
	DailyWords  *service.DailyWordService
	Stats       *service.StatsService
}

// Handler serves the JSON API
type Handler struct {
	Services
	metrics      *metrics.Metrics
	logger       *zap.Logger
	secureCookie bool
}

// NewHandler creates a new handler instance. secureCookie marks the session cookie Secure.
func NewHandler(s Services, m *metrics.Metrics, logger *zap.Logger, secureCookie bool) *Handler {
	return &Handler{
		Services:     s,
		metrics:      m,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Router builds the route tree
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observe(h.metrics, h.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.handleSignUp)
			r.Post("/signin", h.handleSignIn)
			r.Post("/signout", h.handleSignOut)
			r.Get("/session", h.handleSession)
			r.Get("/authorize", h.handleAuthorize)
			r.Get("/watch", h.handleWatch)
		})

		r.Route("/invite/{code}", func(r chi.Router) {
			r.Get("/", h.handleGetInvite)
			r.With(middleware.RequireSession(h.Access)).Post("/register", h.handleRegisterWithInvite)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Access, domain.RoleAdmin, h.logger))
			r.Get("/classrooms", h.handleListClassrooms)
			r.Post("/classrooms", h.handleCreateClassroom)
			r.Get("/invites", h.handleListInvites)
			r.Post("/invites", h.handleCreateInvite)
			r.Patch("/invites/{id}", h.handleToggleInvite)
			r.Post("/invites/{id}/send", h.handleSendInvite)
			r.Get("/stats", h.handleAdminStats)
		})

		r.Route("/teacher", func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Access, domain.RoleTeacher, h.logger))
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Get("/classrooms", h.handleListClassrooms)
			r.Post("/classrooms", h.handleCreateClassroom)
			r.Get("/learners", h.handleListLearners)
			r.Put("/learners/{id}/difficulty", h.handleSetDifficulty)
			r.Get("/daily-words", h.handleTeacherWords)
			r.Post("/daily-words", h.handleCreateDailyWord)
			r.Get("/daily-words/{id}", h.handleTeacherWord)
			r.Post("/daily-words/{id}/approve", h.handleApproveDailyWord)
			r.Post("/daily-words/{id}/level-texts", h.handleAddLevelText)
			r.Post("/daily-words/{id}/translations", h.handleAddTranslation)
			r.Post("/daily-words/{id}/pronunciations", h.handleAddPronunciation)
			r.Post("/daily-words/{id}/tasks", h.handleAddTask)
			r.Get("/tests", h.handleWeeklyTests)
			r.Get("/stats", h.handleTeacherStats)
		})

		r.Route("/elev", func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Access, domain.RoleLearner, h.logger))
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Get("/daily-words", h.handleLearnerWords)
			r.Get("/daily-words/{id}", h.handleLearnerWord)
		})
	})

	return r
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeToast(w http.ResponseWriter, status int, title, description string) {
	writeJSON(w, status, middleware.Toast{Title: title, Description: description})
}

func writeBadRequest(w http.ResponseWriter) {
	writeToast(w, http.StatusBadRequest, "Feil", "Ugyldig forespørsel")
}

// writeError maps a service error to a status and toast. fallback describes what failed
// and is shown for unexpected errors, which are also logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		msg := "Ugyldig verdi"
		if len(verr.Fields) > 0 {
			msg = verr.Fields[0].Message
		}
		writeToast(w, http.StatusBadRequest, "Feil", msg)
	case errors.Is(err, domain.ErrInvalidDifficulty):
		writeToast(w, http.StatusBadRequest, "Feil", "Vanskelighetsgrad må være mellom 1 og 5")
	case errors.Is(err, domain.ErrOrphanedIdentity):
		h.logger.Error("Registration left an identity without profile", zap.String("path", r.URL.Path), zap.Error(err))
		writeToast(w, http.StatusInternalServerError, "Feil ved registrering", "Noe gikk galt under registrering")
	case errors.Is(err, domain.ErrInvalidInviteCode):
		writeToast(w, http.StatusBadRequest, "Ugyldig invitasjonskode", "Invitasjonskoden er ugyldig eller utløpt")
	case errors.Is(err, domain.ErrInviteConsumed):
		writeToast(w, http.StatusConflict, "Ugyldig invitasjonskode", "Invitasjonskoden er allerede brukt")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeToast(w, http.StatusConflict, "Registreringsfeil", "Kontoen er allerede registrert")
	case errors.Is(err, domain.ErrEmailTaken):
		writeToast(w, http.StatusConflict, "Feil ved registrering", "E-postadressen er allerede registrert")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeToast(w, http.StatusUnauthorized, "Feil ved innlogging", "Feil e-post eller passord")
	case errors.Is(err, domain.ErrNoClassroom):
		writeToast(w, http.StatusBadRequest, "Feil", "Du er ikke knyttet til et klasserom")
	case errors.Is(err, domain.ErrNotFound):
		writeToast(w, http.StatusNotFound, "Feil", fallback)
	case errors.Is(err, domain.ErrIdentityCreation), errors.Is(err, domain.ErrProfileRegistration):
		h.logger.Error("Registration failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeToast(w, http.StatusInternalServerError, "Feil ved registrering", "Noe gikk galt under registrering")
	default:
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeToast(w, http.StatusInternalServerError, "Feil", fallback)
	}
}

// profile returns the profile RequireRole stored for the request
func profile(r *http.Request) domain.Profile {
	if p := middleware.ProfileFrom(r.Context()); p != nil {
		return *p
	}
	return domain.Profile{}
}
