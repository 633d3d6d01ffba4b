package handler

import (
	"net/http"

	"github.com/YannKr/brandportal/internal/auth"
)

// RequireAdmin checks the bearer key against the configured hash. With no
// hash configured the admin routes are open; app.Run warns about that at
// startup.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Cfg.AdminKeyHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := auth.BearerKey(r)
		if !ok {
			renderJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing admin key")
			return
		}
		if !auth.CheckKey(h.Cfg.AdminKeyHash, key) {
			renderJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
