package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"norgeskole/internal/domain"
	"norgeskole/internal/service"
)

type classroomRequest struct {
	Name string `json:"name"`
}

type toggleInviteRequest struct {
	Active *bool `json:"active"`
}

type sendInviteRequest struct {
	Email string `json:"email"`
}

type adminStatsResponse struct {
	Classrooms    int `json:"classrooms"`
	ActiveInvites int `json:"active_invites"`
}

func (h *Handler) newInviteResponse(l domain.InviteLink) inviteResponse {
	return inviteResponse{
		ID:            l.ID,
		Code:          l.Code,
		URL:           h.Invites.InviteURL(l),
		Role:          l.Role,
		RoleLabel:     l.Role.Label(),
		ClassroomID:   l.ClassroomID,
		ClassroomName: l.ClassroomName,
		Active:        l.Active,
		SingleUse:     l.SingleUse,
		CreatedAt:     l.CreatedAt,
	}
}

func (h *Handler) handleListClassrooms(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.Classrooms.ListClassrooms(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente klasserom")
		return
	}
	writeJSON(w, http.StatusOK, newClassroomResponses(classrooms))
}

func (h *Handler) handleCreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req classroomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	c, err := h.Classrooms.CreateClassroom(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke opprette klasserom")
		return
	}
	writeJSON(w, http.StatusCreated, classroomResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt})
}

func (h *Handler) handleListInvites(w http.ResponseWriter, r *http.Request) {
	links, err := h.Invites.ListInvites(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente invitasjonslenker")
		return
	}

	out := make([]inviteResponse, 0, len(links))
	for _, l := range links {
		out = append(out, h.newInviteResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req service.InviteInput
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	link, err := h.Invites.CreateInvite(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke opprette invitasjonslenke")
		return
	}
	writeJSON(w, http.StatusCreated, h.newInviteResponse(link))
}

func (h *Handler) handleToggleInvite(w http.ResponseWriter, r *http.Request) {
	var req toggleInviteRequest
	if err := decodeJSON(r, &req); err != nil || req.Active == nil {
		writeBadRequest(w)
		return
	}

	if err := h.Invites.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active); err != nil {
		h.writeError(w, r, err, "Kunne ikke oppdatere invitasjonslenke")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSendInvite(w http.ResponseWriter, r *http.Request) {
	var req sendInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w)
		return
	}

	if err := h.Invites.SendInvite(r.Context(), chi.URLParam(r, "id"), req.Email); err != nil {
		h.writeError(w, r, err, "Kunne ikke sende invitasjonen")
		return
	}
	writeToast(w, http.StatusOK, "Suksess", "Invitasjonen er sendt")
}

func (h *Handler) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.AdminStats(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Kunne ikke hente statistikk")
		return
	}
	writeJSON(w, http.StatusOK, adminStatsResponse{Classrooms: stats.Classrooms, ActiveInvites: stats.ActiveInvites})
}
