package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"envnotify/logger"
	"envnotify/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding %T response: %v", v, err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

// writeEditorError maps an editor error onto a status code. A missing rule is answered
// with 204 since absent ids are no-ops for every mutation.
func writeEditorError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		logger.Debug("%s: %v", op, err)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrImport):
		logger.Info("%s: rejected: %v", op, err)
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
