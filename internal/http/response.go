package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"backstage/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps validation failures to 422 so clients can tell a
// bad payload apart from a backend fault.
func statusForError(err error) int {
	var (
		schemaErr *core.SchemaError
		enumErr   *core.EnumError
		rangeErr  *core.RangeError
		typeErr   *core.TypeError
	)
	switch {
	case errors.As(err, &schemaErr),
		errors.As(err, &enumErr),
		errors.As(err, &rangeErr),
		errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
