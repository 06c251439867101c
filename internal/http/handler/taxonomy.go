package handler

import (
	"net/http"

	"noteworks/internal/auth"
	"noteworks/internal/taxonomy"
)

type TaxonomyHandler struct {
	Svc *taxonomy.Service
}

type categoryReq struct {
	Name      string  `json:"name" validate:"required,max=50"`
	Color     *string `json:"color" validate:"omitempty,max=16"`
	SortOrder int     `json:"sort_order"`
}

func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	out, err := h.Svc.ListCategories(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req categoryReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Svc.CreateCategory(r.Context(), uid, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req categoryReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.UpdateCategory(r.Context(), uid, id, req.Name, req.Color, req.SortOrder); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.DeleteCategory(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagReq struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Color *string `json:"color" validate:"omitempty,max=16"`
}

func (h *TaxonomyHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	out, err := h.Svc.ListTags(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaxonomyHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req tagReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Svc.CreateTag(r.Context(), uid, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *TaxonomyHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req tagReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.UpdateTag(r.Context(), uid, id, req.Name, req.Color); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaxonomyHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Svc.DeleteTag(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
