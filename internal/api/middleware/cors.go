package middleware

import (
	"net/http"
	"strings"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions,
	}, ", ")
	corsRequestHeaders  = "Content-Type, Authorization, X-Request-ID, traceparent, tracestate"
	corsExposedHeaders  = "Location, X-Request-ID, X-From-Cache, X-Cached-At"
	corsPreflightMaxAge = "600"
)

// CORSMiddleware lets browser front ends call the API. An empty list, or one
// containing "*", allows any origin; otherwise only listed origins are echoed
// back. OPTIONS requests are answered here and never reach the routes.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	anyOrigin := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			anyOrigin = true
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); origin != "" {
				if anyOrigin {
					h.Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
				}
				if !anyOrigin {
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsRequestHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposedHeaders)

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Max-Age", corsPreflightMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
