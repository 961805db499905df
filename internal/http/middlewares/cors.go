package middlewares

import (
	"net/http"
	"strings"
)

// WithCORS habilita CORS para los orígenes configurados. "*" permite todos.
func WithCORS(allowed []string) Middleware {
	allowAll := false
	set := map[string]bool{}
	for _, o := range allowed {
		if strings.TrimSpace(o) == "*" {
			allowAll = true
		}
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || set[strings.TrimRight(origin, "/")]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
