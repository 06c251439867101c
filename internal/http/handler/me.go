package handler

import (
	"net/http"

	"noteworks/internal/auth"
	"noteworks/internal/model"

	"gorm.io/gorm"
)

type MeHandler struct {
	DB *gorm.DB
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u model.User
	if err := h.DB.Where("id = ?", uid).First(&u).Error; err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unknown user"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  u.ID,
		"username": u.Username,
	})
}
