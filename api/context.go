/*
context.go - Caller identity middleware

PURPOSE:
  Resolves the Authorization header to a user id before any handler runs.
  Account management itself lives outside this service: the Authenticator
  is pluggable so deployments can verify tokens however their gateway
  issues them.
*/
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator func(token string) (int64, error)

// TokenUserID is a development Authenticator that reads the token as a
// numeric user id, matching what the local gateway forwards.
func TokenUserID(token string) (int64, error) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0, err
	}
	return id, nil
}

type ctxKey int

const userIDKey ctxKey = iota

// Authenticate rejects requests without a resolvable bearer token and
// stores the caller's user id on the request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				respondError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}
			userID, err := auth(token)
			if err != nil || userID == 0 {
				respondError(w, http.StatusUnauthorized, "invalid authorization token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the caller's user id placed on the context by Authenticate.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
