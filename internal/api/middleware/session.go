package middleware

import (
	"net/http"
)

// SessionExpiredMiddleware points every 401 at the login entry through the
// Location header
func SessionExpiredMiddleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&loginRedirectWriter{ResponseWriter: w, loginPath: loginPath}, r)
		})
	}
}

type loginRedirectWriter struct {
	http.ResponseWriter
	loginPath string
}

func (rw *loginRedirectWriter) WriteHeader(statusCode int) {
	if statusCode == http.StatusUnauthorized && rw.loginPath != "" && rw.Header().Get("Location") == "" {
		rw.Header().Set("Location", rw.loginPath)
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *loginRedirectWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
