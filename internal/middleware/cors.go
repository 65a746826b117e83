package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// CORS answers preflight requests and sets CORS headers for allowed origins.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && policy.Allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				logrus.WithFields(logrus.Fields{
					"function": "CORS",
					"path":     r.URL.Path,
				}).Debug("Handled OPTIONS preflight request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
