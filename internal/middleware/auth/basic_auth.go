package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

// WithUser stores the authenticated username in ctx.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UserFromContext returns the username set by BasicAuth.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(ctxKey{}).(string)
	return user, ok && user != ""
}

// BasicAuth checks credentials against users, a username to bcrypt hash map.
func BasicAuth(realm string, users map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				requireAuth(w, realm)
				return
			}

			if !strings.HasPrefix(authHeader, "Basic ") {
				requireAuth(w, realm)
				return
			}

			creds, err := base64.StdEncoding.DecodeString(authHeader[6:])
			if err != nil {
				requireAuth(w, realm)
				return
			}

			credPair := strings.SplitN(string(creds), ":", 2)
			if len(credPair) != 2 {
				requireAuth(w, realm)
				return
			}

			hash, ok := users[credPair[0]]
			if !ok {
				requireAuth(w, realm)
				return
			}

			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(credPair[1])) != nil {
				requireAuth(w, realm)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), credPair[0])))
		})
	}
}

func requireAuth(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
