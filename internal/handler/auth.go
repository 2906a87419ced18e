package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"norgeskole/internal/domain"
	"norgeskole/internal/middleware"
	"norgeskole/internal/service"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token             string            `json:"token,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	Authenticated     bool              `json:"authenticated"`
	NeedsRegistration bool              `json:"needs_registration"`
	Profile           *profileResponse  `json:"profile,omitempty"`
	Toast             *middleware.Toast `json:"toast,omitempty"`
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, session domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// describeSession builds the session payload. An identity without profile needs registration.
func (h *Handler) describeSession(r *http.Request, session domain.Session) (sessionResponse, error) {
	expires := session.ExpiresAt
	resp := sessionResponse{Token: session.Token, ExpiresAt: &expires, Authenticated: true}

	p, err := h.Profiles.GetProfile(r.Context(), session.IdentityID)
	if errors.Is(err, domain.ErrNotFound) {
		resp.NeedsRegistration = true
		return resp, nil
	}
	if err != nil {
		return sessionResponse{}, err
	}
	pr := newProfileResponse(*p)
	resp.Profile = &pr
	return resp, nil
}

// handleSignUp runs the full invite registration and signs the new user in
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	reg, err := h.Invitations.Register(r.Context(), req)
	if err != nil {
		h.logger.Warn("Registration abandoned",
			zap.String("invite_code", reg.Code),
			zap.String("stage", string(reg.FailedAt)),
			zap.Bool("orphaned", reg.Orphaned()),
			zap.Error(err),
		)
		h.writeError(w, r, err, "Noe gikk galt under registrering")
		return
	}

	pr := newProfileResponse(*reg.Profile)
	resp := sessionResponse{
		Profile: &pr,
		Toast:   &middleware.Toast{Title: "Velkommen!", Description: "Din konto er opprettet"},
	}

	session, err := h.Identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Failed to sign in after registration", zap.String("identity_id", reg.IdentityID), zap.Error(err))
		writeJSON(w, http.StatusCreated, resp)
		return
	}

	h.setSessionCookie(w, session)
	expires := session.ExpiresAt
	resp.Token = session.Token
	resp.ExpiresAt = &expires
	resp.Authenticated = true
	resp.Toast = &middleware.Toast{Title: "Registrert", Description: "Du er nå registrert og logget inn!"}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	session, err := h.Identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err, "Noe gikk galt")
		return
	}

	resp, err := h.describeSession(r, session)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente brukerprofil")
		return
	}
	resp.Toast = &middleware.Toast{Title: "Innlogget", Description: "Velkommen tilbake!"}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if session := h.Access.Session(r.Context(), middleware.Token(r)); session != nil {
		if err := h.Identity.SignOut(r.Context(), session.ID); err != nil {
			h.writeError(w, r, err, "Noe gikk galt")
			return
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	session := h.Access.Session(r.Context(), middleware.Token(r))
	if session == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	resp, err := h.describeSession(r, *session)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke laste profil")
		return
	}
	resp.Token = ""
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	decision := h.Access.AuthorizeRoute(r.Context(), middleware.Token(r), r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, newDecisionResponse(decision))
}

// handleWatch streams routing decisions as server-sent events until the client leaves
// or the session ends
func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeToast(w, http.StatusInternalServerError, "Feil", "Strømming støttes ikke")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	decisions := h.Access.Watch(r.Context(), middleware.Token(r), r.URL.Query().Get("path"))
	for d := range decisions {
		payload, err := json.Marshal(newDecisionResponse(d))
		if err != nil {
			h.logger.Error("Failed to encode decision", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "event: decision\ndata: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
