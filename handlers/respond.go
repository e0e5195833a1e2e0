package handlers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/yamdb/backend/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("write response")
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fieldErrors renders a 400 with per-field message lists, e.g.
// {"year": ["cannot be in the future"]}.
func fieldErrors(w http.ResponseWriter, fields map[string]string) {
	body := make(map[string][]string, len(fields))
	for f, msg := range fields {
		body[f] = []string{msg}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func fieldError(w http.ResponseWriter, field, msg string) {
	fieldErrors(w, map[string]string{field: msg})
}

// storeError maps store sentinel errors onto the response.
func storeError(w http.ResponseWriter, err error, notFoundMsg, fallbackMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(w, http.StatusNotFound, notFoundMsg)
		return
	}
	logrus.WithError(err).Error(fallbackMsg)
	errorJSON(w, http.StatusInternalServerError, fallbackMsg)
}

// duplicateOr500 turns a unique-index violation into a field-level 400 and
// anything else into a 500.
func duplicateOr500(w http.ResponseWriter, err error, field, fallbackMsg string) {
	if errors.Is(err, store.ErrDuplicate) {
		fieldError(w, field, "already in use")
		return
	}
	logrus.WithError(err).Error(fallbackMsg)
	errorJSON(w, http.StatusInternalServerError, fallbackMsg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
