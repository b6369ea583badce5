package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/log"
)

// Admin checks for the 'admin' role in an OAuth token signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		roles := strings.Split(claims["roles"], ",")
		if !slices.Contains(roles, "admin") {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "admin.role")
			return
		}

		next.ServeHTTP(w, r)
	})
}
