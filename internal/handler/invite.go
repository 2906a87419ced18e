package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"norgeskole/internal/domain"
	"norgeskole/internal/middleware"
)

type inviteRoleResponse struct {
	Role      domain.Role        `json:"role"`
	RoleLabel string             `json:"role_label"`
	Languages []languageResponse `json:"languages,omitempty"`
}

type registerRequest struct {
	Name string `json:"name"`
	L1   string `json:"l1"`
}

// handleGetInvite resolves the role an invite code grants. Learners also get the language choices.
func (h *Handler) handleGetInvite(w http.ResponseWriter, r *http.Request) {
	role, err := h.Invitations.ResolveInviteRole(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke validere invitasjonskode")
		return
	}

	resp := inviteRoleResponse{Role: role, RoleLabel: role.Label()}
	if role == domain.RoleLearner {
		resp.Languages = languages()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRegisterWithInvite creates the profile for the signed-in identity
func (h *Handler) handleRegisterWithInvite(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	session := middleware.SessionFrom(r.Context())
	p, err := h.Invitations.RegisterWithInvite(r.Context(), *session, chi.URLParam(r, "code"), req.Name, req.L1)
	if err != nil {
		h.writeError(w, r, err, "Noe gikk galt under registrering")
		return
	}
	writeJSON(w, http.StatusCreated, newProfileResponse(p))
}
