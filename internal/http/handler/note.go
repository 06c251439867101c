package handler

import (
	"net/http"
	"strconv"
	"strings"

	"noteworks/internal/auth"
	"noteworks/internal/model"
	"noteworks/internal/note"
	"noteworks/internal/taxonomy"
)

type NoteHandler struct {
	Svc      *note.Service
	Taxonomy *taxonomy.Service
}

type createNoteReq struct {
	WorkspaceID uint64   `json:"workspace_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=200"`
	Type        string   `json:"type" validate:"required,oneof=Markdown Canvas MindMap RichText"`
	CategoryID  *uint64  `json:"category_id"`
	TagIDs      []uint64 `json:"tag_ids"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createNoteReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.Svc.Create(r.Context(), uid, note.CreateInput{
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		Type:        model.NoteType(req.Type),
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// List handles both plain listing and filtering via category_id / tag_ids
// query params. tag_ids is a comma-separated list with AND semantics.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var categoryID *uint64
	if v := strings.TrimSpace(r.URL.Query().Get("category_id")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid category_id"})
			return
		}
		categoryID = &id
	}

	var tagIDs []uint64
	if v := strings.TrimSpace(r.URL.Query().Get("tag_ids")); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid tag_ids"})
				return
			}
			tagIDs = append(tagIDs, id)
		}
	}

	views, err := h.Svc.Filter(r.Context(), uid, categoryID, tagIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.Svc.Get(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateNoteReq struct {
	Title      string  `json:"title" validate:"max=200"`
	Content    string  `json:"content"`
	CategoryID *uint64 `json:"category_id"`
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateNoteReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err = h.Svc.Update(r.Context(), id, uid, note.UpdateInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) Tags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	tags, err := h.Taxonomy.NoteTags(r.Context(), uid, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type setTagsReq struct {
	TagIDs []uint64 `json:"tag_ids"`
}

func (h *NoteHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req setTagsReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Taxonomy.SetNoteTags(r.Context(), uid, id, req.TagIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchIDsReq struct {
	NoteIDs []uint64 `json:"note_ids" validate:"required,min=1"`
}

func (h *NoteHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req batchIDsReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.Svc.SoftDelete(r.Context(), req.NoteIDs, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affected": n})
}
