package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/tandem/internal/auth"
	"github.com/dukerupert/tandem/internal/store"
)

// RequireAuth validates the bearer token and populates AuthContext.
// Browsers cannot set headers on a websocket upgrade, so a token query
// parameter is accepted as well.
func RequireAuth(tokens *auth.TokenIssuer, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w, "missing token")
				return
			}

			ac, err := tokens.Parse(raw)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			user, err := userStore.GetByID(r.Context(), ac.UserID)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "failed to load user"})
				return
			}
			if user == nil {
				unauthorized(w, "unknown user")
				return
			}

			noteUser(r.Context(), user.ID)
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tandem"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
