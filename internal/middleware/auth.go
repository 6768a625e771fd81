package middleware

import (
	"context"
	"net/http"
	"strings"

	"societyledger/internal/auth"
)

type contextKey string

const actingUserKey contextKey = "acting_user"

func ActingUserFromContext(ctx context.Context) (string, bool) {
	actingUser, ok := ctx.Value(actingUserKey).(string)
	return actingUser, ok
}

// Auth extracts the acting-user identity from a bearer token and puts
// it on the request context. Every mutating ledger call requires it for
// entered_by / reversed_by / history attribution.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), actingUserKey, claims.ActingUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
