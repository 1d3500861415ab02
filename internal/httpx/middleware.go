package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/harshvardhansingh3000/flower-inventory/internal/auth"
	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

type ctxKey int

const actorKey ctxKey = iota

// Authenticated rejects requests without a valid bearer token and puts
// the verified actor on the request context.
func Authenticated(verify func(string) (flowers.Actor, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, auth.ErrInvalidToken)
				return
			}
			actor, err := verify(token)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func actorFrom(r *http.Request) flowers.Actor {
	actor, _ := r.Context().Value(actorKey).(flowers.Actor)
	return actor
}
