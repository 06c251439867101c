package handler

import (
	"encoding/json"
	"net/http"

	"noteworks/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to status codes. Anything outside the
// taxonomy is an infrastructure failure and stays opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "server error", "kind": "internal",
		})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPermissionDenied:
		status = http.StatusForbidden
	case apperr.KindBusinessRule, apperr.KindInvalidState:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]any{
		"error": err.Error(), "kind": kind.String(),
	})
}

// decodeValid decodes the JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("malformed json body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Validation("invalid input: %v", err)
	}
	return nil
}
