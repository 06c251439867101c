package handler

import (
	"net/http"
	"strconv"

	"noteworks/internal/apperr"
	"noteworks/internal/auth"
	"noteworks/internal/model"
	"noteworks/internal/workspace"

	"github.com/go-chi/chi/v5"
)

type WorkspaceHandler struct {
	Svc *workspace.Service
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

type createWorkspaceReq struct {
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"required,oneof=Personal Team"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createWorkspaceReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.Svc.Create(r.Context(), uid, req.Name, model.WorkspaceType(req.Type))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	views, err := h.Svc.GetUserWorkspaces(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *WorkspaceHandler) Detail(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.Svc.GetDetail(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	if err := h.Svc.Delete(r.Context(), id, uid, force); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) Members(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	members, err := h.Svc.ListMembers(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	target, err := pathID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.RemoveMember(r.Context(), id, uid, target); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type permissionsReq struct {
	CanEdit  bool `json:"can_edit"`
	CanShare bool `json:"can_share"`
}

func (h *WorkspaceHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	target, err := pathID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}

	var req permissionsReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.UpdatePermissions(r.Context(), id, uid, target, req.CanEdit, req.CanShare); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.Leave(r.Context(), id, uid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
