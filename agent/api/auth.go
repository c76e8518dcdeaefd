package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdmin guards operator routes with Authorization: Bearer <key>.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !s.adminKeyValid(strings.TrimSpace(key)) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminKeyValid(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range s.adminKeys {
		if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
			return true
		}
	}
	return false
}
