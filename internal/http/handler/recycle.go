package handler

import (
	"net/http"

	"noteworks/internal/auth"
	"noteworks/internal/note"
)

type RecycleHandler struct {
	Svc *note.Service
}

func (h *RecycleHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	views, err := h.Svc.ListDeleted(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RecycleHandler) Restore(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req batchIDsReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.Svc.Restore(r.Context(), req.NoteIDs, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affected": n})
}

func (h *RecycleHandler) Purge(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req batchIDsReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.Svc.Purge(r.Context(), req.NoteIDs, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affected": n})
}
