package middleware

import (
	"net/http"
	"strings"
)

// NoStore sets strict no-cache headers on API responses. Devices poll
// the hosted snapshot endpoint; a cached snapshot would feed the merge
// stale progress.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		next.ServeHTTP(w, r)
	})
}
