package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harshvardhansingh3000/flower-inventory/internal/auth"
	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain error taxonomy onto HTTP status codes; the
// core itself stays agnostic to this mapping.
func statusFor(err error) int {
	switch {
	case errors.Is(err, flowers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, flowers.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, flowers.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, flowers.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, flowers.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
