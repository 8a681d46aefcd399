package router

import (
	"crypto/subtle"
	"net/http"
)

// HeaderAdminKey carries the provisioning key for back-office endpoints.
const HeaderAdminKey = "X-Admin-Key"

// AdminKey guards an endpoint with a shared provisioning key. An empty key
// disables the endpoint entirely.
func AdminKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeJSON(w, errorResponse{Message: "endpoint disabled"}, http.StatusForbidden)
				return
			}

			got := r.Header.Get(HeaderAdminKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
