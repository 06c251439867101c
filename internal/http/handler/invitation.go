package handler

import (
	"context"
	"net/http"

	"noteworks/internal/auth"
	"noteworks/internal/invitation"
)

type InvitationHandler struct {
	Svc *invitation.Service
}

type sendInvitationReq struct {
	InviteeUsername string `json:"invitee_username" validate:"required,max=32"`
	CanEdit         bool   `json:"can_edit"`
	CanShare        bool   `json:"can_share"`
	Message         string `json:"message" validate:"max=500"`
}

func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	wsID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req sendInvitationReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Svc.Send(r.Context(), wsID, uid, invitation.SendInput{
		InviteeUsername: req.InviteeUsername,
		CanEdit:         req.CanEdit,
		CanShare:        req.CanShare,
		Message:         req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	views, err := h.Svc.ListForUser(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Accept)
}

func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Reject)
}

func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Revoke)
}

func (h *InvitationHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, invitationID, callerID uint64) error) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := op(r.Context(), id, uid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
